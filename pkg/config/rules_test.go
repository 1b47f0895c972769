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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/pattern"
)

func TestRuleBuild(t *testing.T) {
	tests := []struct {
		name        string
		rule        RuleConfig
		wantMarker  string
		wantKind    pattern.Kind
		errContains string
	}{
		{
			name: "insert_gets_implicit_marker",
			rule: RuleConfig{
				ID:     "flag",
				Action: "insert_after",
				Text:   "\nlet showTomorrow = false;",
				Match:  PatternConfig{Literal: strPtr("let viewMode = 'list';")},
			},
			wantMarker: "\nlet showTomorrow = false;",
			wantKind:   pattern.KindLiteral,
		},
		{
			name: "explicit_marker_wins",
			rule: RuleConfig{
				ID:     "flag",
				Action: "insert_before",
				Text:   "setup();\n",
				Match:  PatternConfig{Literal: strPtr("render();")},
				Marker: &PatternConfig{Structured: strPtr("setup({{not:)}});")},
			},
			wantMarker: "setup({{not:)}});",
			wantKind:   pattern.KindStructured,
		},
		{
			name: "insert_with_group_reference_has_no_marker",
			rule: RuleConfig{
				ID:     "dup",
				Action: "insert_after",
				Text:   `\1`,
				Match:  PatternConfig{Regex: strPtr(`(x+)`)},
			},
		},
		{
			name: "check_uses_match_as_marker",
			rule: RuleConfig{
				ID:     "today-button",
				Action: "check",
				Match:  PatternConfig{Literal: strPtr("btn-today")},
			},
			wantMarker: "btn-today",
			wantKind:   pattern.KindLiteral,
		},
		{
			name: "crlf_text_marker_is_lf",
			rule: RuleConfig{
				ID:     "add-c",
				Action: "insert_after",
				Text:   "\r\nlet c = 3;",
				Match:  PatternConfig{Literal: strPtr("let a = 1;")},
			},
			wantMarker: "\nlet c = 3;",
			wantKind:   pattern.KindLiteral,
		},
		{
			name: "crlf_marker_is_lf",
			rule: RuleConfig{
				ID:     "m",
				Action: "insert_after",
				Text:   "x",
				Match:  PatternConfig{Literal: strPtr("a")},
				Marker: &PatternConfig{Literal: strPtr("x\r\ny\r")},
			},
			wantMarker: "x\ny\n",
			wantKind:   pattern.KindLiteral,
		},
		{
			name: "replace_has_no_implicit_marker",
			rule: RuleConfig{
				ID:    "r",
				Text:  "b",
				Match: PatternConfig{Literal: strPtr("a")},
			},
		},
		{
			name: "bad_structured_template",
			rule: RuleConfig{
				ID:    "bad",
				Match: PatternConfig{Structured: strPtr("foo({{any)")},
			},
			errContains: `rule "bad" match`,
		},
		{
			name: "bad_fallback_regex",
			rule: RuleConfig{
				ID:        "bad",
				Match:     PatternConfig{Literal: strPtr("a")},
				Fallbacks: []PatternConfig{{Regex: strPtr("(")}},
			},
			errContains: `rule "bad" fallback 1`,
		},
		{
			name: "empty_literal",
			rule: RuleConfig{
				ID:    "bad",
				Match: PatternConfig{Literal: strPtr("")},
			},
			errContains: `rule "bad" match`,
		},
		{
			name: "delete_with_text",
			rule: RuleConfig{
				ID:     "bad",
				Action: "delete",
				Text:   "x",
				Match:  PatternConfig{Literal: strPtr("a")},
			},
			errContains: "takes no text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.rule.Build()
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.True(t, errors.Is(err, errs.PatternConfigurationError), "should be a pattern configuration error: %v", err)
				return
			}

			require.NoError(t, err)
			require.NoError(t, r.Validate())
			if tt.wantMarker == "" {
				assert.Nil(t, r.Marker)
				return
			}
			require.NotNil(t, r.Marker)
			assert.Equal(t, tt.wantMarker, r.Marker.Source())
			assert.Equal(t, tt.wantKind, r.Marker.Kind())
		})
	}
}

func TestImplicitMarkerMakesInsertIdempotent(t *testing.T) {
	rc := RuleConfig{
		ID:     "flag",
		Action: "insert_after",
		Text:   "\nlet showTomorrow = false;",
		Match:  PatternConfig{Literal: strPtr("let viewMode = 'list';")},
	}
	rule, err := rc.Build()
	require.NoError(t, err)

	doc := document.Document("let viewMode = 'list';\nrender();\n")
	once, first := rule.Apply(doc)
	twice, second := rule.Apply(once)

	assert.Equal(t, patch.OutcomeApplied, first.Outcome)
	assert.Equal(t, patch.OutcomeAlreadyPresent, second.Outcome)
	assert.Equal(t, 1, strings.Count(string(twice), "showTomorrow"))
}

func TestCrlfRuleIsIdempotent(t *testing.T) {
	insert, err := RuleConfig{
		ID:     "add-c",
		Action: "insert_after",
		Text:   "\r\nlet c = 3;",
		Match:  PatternConfig{Literal: strPtr("let a = 1;")},
	}.Build()
	require.NoError(t, err)

	lookup, err := RuleConfig{
		ID:     "find-b",
		Action: "check",
		Match:  PatternConfig{Literal: strPtr("let b = 2;\r\n")},
	}.Build()
	require.NoError(t, err)

	// documents are loaded with LF line breaks
	doc := document.Document(document.Normalize("let a = 1;\r\nlet b = 2;\r\n", document.LineEndingLF))

	once, first := insert.Apply(doc)
	twice, second := insert.Apply(once)
	assert.Equal(t, patch.OutcomeApplied, first.Outcome)
	assert.Equal(t, patch.OutcomeAlreadyPresent, second.Outcome)
	assert.Equal(t, document.Document("let a = 1;\nlet c = 3;\nlet b = 2;\n"), twice)

	_, found := lookup.Apply(twice)
	assert.Equal(t, patch.OutcomeAlreadyPresent, found.Outcome)
}

func TestCheckRule(t *testing.T) {
	rule, err := RuleConfig{
		ID:     "today-button",
		Action: "check",
		Match:  PatternConfig{Structured: strPtr("class=\"btn-today{{not:\"}}\"")},
	}.Build()
	require.NoError(t, err)
	require.NoError(t, rule.Validate())

	present := document.Document(`<button class="btn-today active">Hoy</button>`)
	out, res := rule.Apply(present)
	assert.Equal(t, patch.OutcomeAlreadyPresent, res.Outcome)
	assert.Equal(t, present, out)

	missing := document.Document(`<button class="btn-week">Semana</button>`)
	out, res = rule.Apply(missing)
	assert.Equal(t, patch.OutcomeNoMatch, res.Outcome)
	assert.Equal(t, missing, out, "check never edits")
}

func TestPipelineFromConfig(t *testing.T) {
	cfg := &Config{
		Targets: []string{"a.js"},
		Rules: []RuleConfig{
			{ID: "one", Match: PatternConfig{Literal: strPtr("a")}, Text: "b"},
			{ID: "two", Match: PatternConfig{Structured: strPtr("{{any}}")}},
		},
	}
	require.NoError(t, cfg.Validate())

	_, err := cfg.Pipeline()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "two"`)
	assert.True(t, errors.Is(err, errs.PatternConfigurationError))
	assert.False(t, errors.Is(err, errs.ConfigError), "pattern errors keep their own kind")
}
