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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/pattern"
)

const viewModeDoc = "let viewMode = 'x';\nlet patients = [];\nrender();\n"

func viewModeRule() *Rule {
	return &Rule{
		ID:           "tomorrow-flag",
		Precondition: pattern.MustLiteral("let viewMode = 'x';"),
		Marker:       pattern.MustLiteral("let showTomorrow"),
		Transform:    InsertAfter("\nlet showTomorrow = false;"),
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name          string
		rule          *Rule
		doc           document.Document
		want          document.Document
		wantOutcome   Outcome
		wantMatchedBy int
		wantOccurs    int
	}{
		{
			name:          "precondition_applies",
			rule:          viewModeRule(),
			doc:           viewModeDoc,
			want:          "let viewMode = 'x';\nlet showTomorrow = false;\nlet patients = [];\nrender();\n",
			wantOutcome:   OutcomeApplied,
			wantMatchedBy: 0,
			wantOccurs:    1,
		},
		{
			name:          "marker_wins_over_precondition",
			rule:          viewModeRule(),
			doc:           "let viewMode = 'x';\nlet showTomorrow = true;\n",
			want:          "let viewMode = 'x';\nlet showTomorrow = true;\n",
			wantOutcome:   OutcomeAlreadyPresent,
			wantMatchedBy: NoFallback,
		},
		{
			name:          "no_match_leaves_document",
			rule:          viewModeRule(),
			doc:           "const unrelated = 1;\n",
			want:          "const unrelated = 1;\n",
			wantOutcome:   OutcomeNoMatch,
			wantMatchedBy: NoFallback,
		},
		{
			name: "fallback_used_when_precondition_absent",
			rule: &Rule{
				ID:           "header",
				Precondition: pattern.MustLiteral("<h1>Patients</h1>"),
				Fallbacks: []*pattern.Pattern{
					pattern.MustLiteral("<h1>Clients</h1>"),
					pattern.MustLiteral("<h1>"),
				},
				Marker:    pattern.MustLiteral("<h1>Today</h1>"),
				Transform: Replace("<h1>Today</h1>"),
			},
			doc:           "<div><h1>Clients</h1></div>",
			want:          "<div><h1>Today</h1></div>",
			wantOutcome:   OutcomeApplied,
			wantMatchedBy: 1,
			wantOccurs:    1,
		},
		{
			name: "precondition_preferred_over_fallback",
			rule: &Rule{
				ID:           "pick",
				Precondition: pattern.MustLiteral("beta"),
				Fallbacks:    []*pattern.Pattern{pattern.MustLiteral("alpha")},
				Transform:    Replace("BETA"),
			},
			doc:           "alpha beta",
			want:          "alpha BETA",
			wantOutcome:   OutcomeApplied,
			wantMatchedBy: 0,
			wantOccurs:    1,
		},
		{
			name: "structured_replace_with_groups",
			rule: &Rule{
				ID:           "signature",
				Precondition: pattern.MustStructured("function renderList({{not:)}}) {"),
				Marker:       pattern.MustLiteral("function renderList(day,"),
				Transform:    Replace(`function renderList(day, \1) {`),
			},
			doc:           "function renderList(items, opts) {\n  return `${items}`;\n}",
			want:          "function renderList(day, items, opts) {\n  return `${items}`;\n}",
			wantOutcome:   OutcomeApplied,
			wantMatchedBy: 0,
			wantOccurs:    1,
		},
		{
			name: "all_occurrences",
			rule: &Rule{
				ID:           "rename",
				Precondition: pattern.MustLiteral("oldName"),
				Transform:    Replace("newName"),
				All:          true,
			},
			doc:           "oldName(); x = oldName; oldName",
			want:          "newName(); x = newName; newName",
			wantOutcome:   OutcomeApplied,
			wantMatchedBy: 0,
			wantOccurs:    3,
		},
		{
			name: "all_with_growing_insert",
			rule: &Rule{
				ID:           "semi",
				Precondition: pattern.MustRegex(`(?m)^let (\w+)$`),
				Transform:    Replace(`let \1 = null;`),
				All:          true,
			},
			doc:           "let a\nlet bb\nlet ccc\n",
			want:          "let a = null;\nlet bb = null;\nlet ccc = null;\n",
			wantOutcome:   OutcomeApplied,
			wantMatchedBy: 0,
			wantOccurs:    3,
		},
		{
			name: "delete_line",
			rule: &Rule{
				ID:           "drop-debug",
				Precondition: pattern.MustLiteral("debugger;\n"),
				Transform:    Delete(),
			},
			doc:           "a();\ndebugger;\nb();\n",
			want:          "a();\nb();\n",
			wantOutcome:   OutcomeApplied,
			wantMatchedBy: 0,
			wantOccurs:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.rule.Validate())

			got, res := tt.rule.Apply(tt.doc)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantMatchedBy, res.MatchedBy)
			assert.Equal(t, tt.wantOccurs, res.Occurrences)
			if !tt.wantOutcome.Changed() {
				assert.Equal(t, tt.doc, got, "skipped rules return the input")
			}
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	rule := viewModeRule()

	once, first := rule.Apply(viewModeDoc)
	require.Equal(t, OutcomeApplied, first.Outcome)

	twice, second := rule.Apply(once)
	assert.Equal(t, OutcomeAlreadyPresent, second.Outcome)
	assert.Equal(t, once, twice, "second application must not change the document")
	assert.Equal(t, 1, strings.Count(string(twice), "let showTomorrow"), "declaration should appear exactly once")
}

func TestApplyWithoutMarkerReliesOnPrecondition(t *testing.T) {
	rule := &Rule{
		ID:           "rename-once",
		Precondition: pattern.MustLiteral("var x"),
		Transform:    Replace("let x"),
	}

	once, first := rule.Apply("var x = 1;")
	require.Equal(t, OutcomeApplied, first.Outcome)

	twice, second := rule.Apply(once)
	assert.Equal(t, OutcomeNoMatch, second.Outcome)
	assert.Equal(t, once, twice)
}

func TestInsertBefore(t *testing.T) {
	rule := &Rule{
		ID:           "import",
		Precondition: pattern.MustLiteral("render();"),
		Marker:       pattern.MustLiteral("setup();"),
		Transform:    InsertBefore("setup();\n"),
	}
	got, res := rule.Apply("render();\n")
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, document.Document("setup();\nrender();\n"), got)
}

func TestFuncTransform(t *testing.T) {
	rule := &Rule{
		ID:           "upper",
		Precondition: pattern.MustRegex(`'[a-z]+'`),
		Transform:    Func(strings.ToUpper),
	}
	got, _ := rule.Apply("mode = 'day';")
	assert.Equal(t, document.Document("mode = 'DAY';"), got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		rule        *Rule
		errContains []string
	}{
		{
			name:        "empty_rule",
			rule:        &Rule{},
			errContains: []string{"id is empty", "precondition is missing", "transform is missing"},
		},
		{
			name: "nil_fallback",
			rule: &Rule{
				ID:           "x",
				Precondition: pattern.MustLiteral("a"),
				Fallbacks:    []*pattern.Pattern{pattern.MustLiteral("b"), nil},
				Transform:    Delete(),
			},
			errContains: []string{"fallback 2 is nil"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.PatternConfigurationError))
			for _, want := range tt.errContains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestActionTransform(t *testing.T) {
	tests := []struct {
		action  Action
		text    string
		wantErr string
	}{
		{action: ActionReplace, text: "x"},
		{action: ActionReplace, text: ""},
		{action: "INSERT_AFTER", text: "x"},
		{action: ActionInsertBefore, text: "", wantErr: "needs text"},
		{action: ActionInsertAfter, text: "", wantErr: "needs text"},
		{action: ActionDelete, text: ""},
		{action: ActionDelete, text: "x", wantErr: "takes no text"},
		{action: ActionCheck, text: ""},
		{action: ActionCheck, text: "x", wantErr: "takes no text"},
		{action: "append", text: "x", wantErr: "unknown action"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action)+"_"+tt.text, func(t *testing.T) {
			tr, err := tt.action.Transform(tt.text)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, errors.Is(err, errs.PatternConfigurationError))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tr)
		})
	}

	assert.True(t, ActionInsertAfter.Inserts())
	assert.False(t, ActionReplace.Inserts())
	assert.True(t, Action("CHECK").Verifies())
	assert.False(t, ActionCheck.Inserts())
}

func TestCheck(t *testing.T) {
	rule := Check("view-mode-defined", "", pattern.MustRegex(`let viewMode = '\w+';`))
	require.NoError(t, rule.Validate())

	out, res := rule.Apply(viewModeDoc)
	assert.Equal(t, OutcomeAlreadyPresent, res.Outcome)
	assert.Equal(t, document.Document(viewModeDoc), out)

	missing := document.Document("let patients = [];\n")
	out, res = rule.Apply(missing)
	assert.Equal(t, OutcomeNoMatch, res.Outcome)
	assert.Equal(t, NoFallback, res.MatchedBy)
	assert.Equal(t, missing, out)
}

func TestAlreadyApplied(t *testing.T) {
	assert.False(t, AlreadyApplied("anything", nil))
	assert.True(t, AlreadyApplied("a marker here", pattern.MustLiteral("marker")))
	assert.False(t, AlreadyApplied("nothing", pattern.MustLiteral("marker")))
	assert.True(t, AlreadyApplied("x  =  1", pattern.MustStructured("x{{ws}}={{ws}}1")))
}
