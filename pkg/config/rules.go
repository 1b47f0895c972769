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

package config

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/pattern"
	"github.com/walteh/patchrc/pkg/pipeline"
)

var groupRef = regexp.MustCompile(`\\[0-9]`)

// Build compiles a pattern declaration. Line breaks in the source are
// normalized to LF, the form documents are matched in.
func (p PatternConfig) Build() (*pattern.Pattern, error) {
	switch {
	case p.count() != 1:
		return nil, errs.New(errs.CodePatternConfig, "pattern must set exactly one of literal, structured or regex")
	case p.Literal != nil:
		return pattern.Literal(lf(*p.Literal))
	case p.Structured != nil:
		return pattern.Structured(lf(*p.Structured))
	default:
		return pattern.Regex(lf(*p.Regex))
	}
}

// lf converts CRLF and lone CR line breaks to LF. Documents are loaded with
// LF line breaks and only take their configured ending when saved.
func lf(s string) string {
	return document.Normalize(s, document.LineEndingLF)
}

// Build compiles the rule. Insert actions without an explicit marker use the
// inserted text as their marker, so re-running never inserts twice. Check
// actions compile to patch.Check on the match pattern.
func (r RuleConfig) Build() (*patch.Rule, error) {
	pre, err := r.Match.Build()
	if err != nil {
		return nil, errors.Errorf("rule %q match: %w", r.ID, err)
	}

	rule := &patch.Rule{
		ID:           r.ID,
		Description:  r.Description,
		Precondition: pre,
		All:          r.All,
	}

	for i, fb := range r.Fallbacks {
		p, err := fb.Build()
		if err != nil {
			return nil, errors.Errorf("rule %q fallback %d: %w", r.ID, i+1, err)
		}
		rule.Fallbacks = append(rule.Fallbacks, p)
	}

	action := patch.Action(r.Action)
	if action == "" {
		action = patch.ActionReplace
	}
	text := lf(r.Text)

	if action.Verifies() {
		if _, err := action.Transform(text); err != nil {
			return nil, errors.Errorf("rule %q: %w", r.ID, err)
		}
		return patch.Check(r.ID, r.Description, pre), nil
	}

	switch {
	case r.Marker != nil:
		rule.Marker, err = r.Marker.Build()
		if err != nil {
			return nil, errors.Errorf("rule %q marker: %w", r.ID, err)
		}
	case action.Inserts() && strings.TrimSpace(text) != "" && !groupRef.MatchString(text):
		rule.Marker, err = pattern.Literal(text)
		if err != nil {
			return nil, errors.Errorf("rule %q implicit marker: %w", r.ID, err)
		}
	}

	rule.Transform, err = action.Transform(text)
	if err != nil {
		return nil, errors.Errorf("rule %q: %w", r.ID, err)
	}

	return rule, nil
}

// BuildRules compiles every rule in declaration order.
func (cfg *Config) BuildRules() ([]*patch.Rule, error) {
	rules := make([]*patch.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		r, err := rc.Build()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Pipeline compiles the rules into a pipeline.
func (cfg *Config) Pipeline() (*pipeline.Pipeline, error) {
	rules, err := cfg.BuildRules()
	if err != nil {
		return nil, errors.Errorf("building rules: %w", err)
	}
	p, err := pipeline.New(rules...)
	if err != nil {
		return nil, errors.Errorf("building pipeline: %w", err)
	}
	return p, nil
}
