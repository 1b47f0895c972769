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

package patch

import (
	"fmt"
	"strings"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/pattern"
)

// 🔧 Rule is one idempotent textual transformation.
type Rule struct {
	ID          string
	Description string

	// Precondition is tried first; Fallbacks are tried in order when it is
	// absent. The first pattern that matches decides where Transform runs.
	Precondition *pattern.Pattern
	Fallbacks    []*pattern.Pattern

	// Marker, when set, is looked up before anything else. Finding it means
	// the rule was applied by an earlier run.
	Marker *pattern.Pattern

	Transform Transform

	// All transforms every non-overlapping occurrence of the winning pattern
	// instead of only the first.
	All bool
}

// Check returns a rule that only verifies p is present and never edits the
// document. Finding p reports OutcomeAlreadyPresent, otherwise the rule
// reports OutcomeNoMatch and counts as a miss like any other rule.
func Check(id, description string, p *pattern.Pattern) *Rule {
	return &Rule{
		ID:           id,
		Description:  description,
		Precondition: p,
		Marker:       p,
		Transform:    Keep(),
	}
}

// Validate checks that the rule is complete. Pattern syntax is checked when
// patterns are constructed, so a Rule that validates cannot fail at run time.
func (r *Rule) Validate() error {
	var problems []string
	if strings.TrimSpace(r.ID) == "" {
		problems = append(problems, "id is empty")
	}
	if r.Precondition == nil {
		problems = append(problems, "precondition is missing")
	}
	for i, fb := range r.Fallbacks {
		if fb == nil {
			problems = append(problems, fmt.Sprintf("fallback %d is nil", i+1))
		}
	}
	if r.Transform == nil {
		problems = append(problems, "transform is missing")
	}
	if len(problems) == 0 {
		return nil
	}
	return errs.Newf(errs.CodePatternConfig, "invalid rule: %s", strings.Join(problems, "; ")).
		WithDetail("rule", r.ID)
}

// Patterns returns the precondition followed by the fallbacks.
func (r *Rule) Patterns() []*pattern.Pattern {
	out := make([]*pattern.Pattern, 0, 1+len(r.Fallbacks))
	out = append(out, r.Precondition)
	return append(out, r.Fallbacks...)
}

// Apply runs the rule against doc. The returned document is doc itself unless
// the outcome is OutcomeApplied.
func (r *Rule) Apply(doc document.Document) (document.Document, Result) {
	if AlreadyApplied(doc, r.Marker) {
		return doc, Result{Outcome: OutcomeAlreadyPresent, MatchedBy: NoFallback, Pattern: r.Marker}
	}

	for i, p := range r.Patterns() {
		if r.All {
			matches := pattern.FindAll(string(doc), p)
			if len(matches) == 0 {
				continue
			}
			out := doc
			// back to front so earlier offsets stay valid
			for j := len(matches) - 1; j >= 0; j-- {
				out = r.Transform(out, matches[j])
			}
			return out, Result{Outcome: OutcomeApplied, MatchedBy: i, Pattern: p, Occurrences: len(matches)}
		}

		m, ok := pattern.Find(string(doc), p)
		if !ok {
			continue
		}
		return r.Transform(doc, m), Result{Outcome: OutcomeApplied, MatchedBy: i, Pattern: p, Occurrences: 1}
	}

	return doc, Result{Outcome: OutcomeNoMatch, MatchedBy: NoFallback}
}
