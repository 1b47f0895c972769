// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline runs an ordered list of patch rules over one document.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/patch"
)

// 🔄 Pipeline is an ordered, validated set of rules.
type Pipeline struct {
	rules []*patch.Rule
}

// New validates every rule and rejects duplicate IDs.
func New(rules ...*patch.Rule) (*Pipeline, error) {
	seen := make(map[string]int, len(rules))
	for i, r := range rules {
		if r == nil {
			return nil, errs.Newf(errs.CodePatternConfig, "rule %d is nil", i+1)
		}
		if err := r.Validate(); err != nil {
			return nil, errors.Errorf("validating rule %d: %w", i+1, err)
		}
		if prev, ok := seen[r.ID]; ok {
			return nil, errs.Newf(errs.CodePatternConfig, "duplicate rule id %q", r.ID).
				WithDetail("first", prev).
				WithDetail("second", i+1)
		}
		seen[r.ID] = i + 1
	}
	return &Pipeline{rules: rules}, nil
}

// Rules returns the rules in execution order.
func (p *Pipeline) Rules() []*patch.Rule {
	return p.rules
}

// Len returns the number of rules.
func (p *Pipeline) Len() int {
	return len(p.rules)
}

// Run threads doc through every rule in order. Each rule sees the result of
// the rules before it. A rule that does not match never stops the run.
func (p *Pipeline) Run(ctx context.Context, doc document.Document) (document.Document, *Report) {
	logger := zerolog.Ctx(ctx)
	report := &Report{Entries: make([]Entry, 0, len(p.rules))}

	current := doc
	for _, r := range p.rules {
		next, res := r.Apply(current)

		ev := logger.Debug().
			Str("rule", r.ID).
			Str("outcome", string(res.Outcome))
		if res.Outcome == patch.OutcomeApplied {
			ev = ev.Int("matched_by", res.MatchedBy).
				Int("occurrences", res.Occurrences).
				Int("delta", next.Len()-current.Len())
		}
		ev.Msg("rule evaluated")

		report.Entries = append(report.Entries, Entry{
			RuleID:      r.ID,
			Description: r.Description,
			Result:      res,
		})
		current = next
	}

	return current, report
}
