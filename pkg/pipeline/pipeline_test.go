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

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/pattern"
)

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

// addBlock introduces a block that addField depends on.
func addBlock() *patch.Rule {
	return &patch.Rule{
		ID:           "add-block",
		Precondition: pattern.MustLiteral("const state = {};"),
		Marker:       pattern.MustLiteral("  view: 'today',"),
		Transform:    patch.Replace("const state = {\n  view: 'today',\n};"),
	}
}

func addField() *patch.Rule {
	return &patch.Rule{
		ID:           "add-field",
		Precondition: pattern.MustLiteral("  view: 'today',\n"),
		Marker:       pattern.MustLiteral("  day: 0,\n"),
		Transform:    patch.InsertAfter("  day: 0,\n"),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		rules       []*patch.Rule
		errContains string
	}{
		{
			name:  "valid",
			rules: []*patch.Rule{addBlock(), addField()},
		},
		{
			name:  "empty_pipeline",
			rules: nil,
		},
		{
			name:        "duplicate_ids",
			rules:       []*patch.Rule{addBlock(), addBlock()},
			errContains: `duplicate rule id "add-block"`,
		},
		{
			name:        "invalid_rule",
			rules:       []*patch.Rule{addBlock(), {ID: "broken"}},
			errContains: "validating rule 2",
		},
		{
			name:        "nil_rule",
			rules:       []*patch.Rule{nil},
			errContains: "rule 1 is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.rules...)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.True(t, errors.Is(err, errs.PatternConfigurationError), "should be a configuration error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.rules), p.Len())
		})
	}
}

func TestRunOrderSensitivity(t *testing.T) {
	ctx := testContext()
	p, err := New(addBlock(), addField())
	require.NoError(t, err)

	doc := document.Document("const state = {};\nboot(state);\n")

	first, report := p.Run(ctx, doc)
	outcome, ok := report.Outcome("add-block")
	require.True(t, ok)
	assert.Equal(t, patch.OutcomeApplied, outcome)
	outcome, _ = report.Outcome("add-field")
	assert.Equal(t, patch.OutcomeApplied, outcome, "second rule sees the first rule's output")
	assert.Equal(t, document.Document("const state = {\n  view: 'today',\n  day: 0,\n};\nboot(state);\n"), first)

	second, report := p.Run(ctx, first)
	assert.Equal(t, first, second)
	assert.False(t, report.Changed())
	assert.Equal(t, Summary{AlreadyPresent: 2}, report.Summary())
}

func TestRunReversedOrderMisses(t *testing.T) {
	ctx := testContext()
	p, err := New(addField(), addBlock())
	require.NoError(t, err)

	doc := document.Document("const state = {};\n")

	out, report := p.Run(ctx, doc)
	outcome, _ := report.Outcome("add-field")
	assert.Equal(t, patch.OutcomeNoMatch, outcome, "field rule runs before its block exists")
	outcome, _ = report.Outcome("add-block")
	assert.Equal(t, patch.OutcomeApplied, outcome, "a miss does not stop the pipeline")
	assert.Equal(t, []string{"add-field"}, report.Misses())

	// the next run picks up the field
	_, report = p.Run(ctx, out)
	assert.Equal(t, Summary{Applied: 1, AlreadyPresent: 1}, report.Summary())
}

func TestRunNoOpSafety(t *testing.T) {
	p, err := New(addBlock(), addField())
	require.NoError(t, err)

	doc := document.Document("nothing to see here\r\n")
	out, report := p.Run(testContext(), doc)
	assert.Equal(t, doc, out, "document should be byte-identical")
	assert.False(t, report.Changed())
	assert.Equal(t, Summary{NoMatch: 2}, report.Summary())
	assert.Len(t, report.Entries, 2, "every rule is reported")
}

func TestRunLogsOutcomes(t *testing.T) {
	var buf strings.Builder
	ctx := zerolog.New(&buf).Level(zerolog.DebugLevel).WithContext(context.Background())

	p, err := New(addBlock())
	require.NoError(t, err)
	p.Run(ctx, "const state = {};")

	assert.Contains(t, buf.String(), `"rule":"add-block"`)
	assert.Contains(t, buf.String(), `"outcome":"applied"`)
}

func TestReportString(t *testing.T) {
	report := &Report{Entries: []Entry{
		{RuleID: "a", Result: patch.Result{Outcome: patch.OutcomeApplied, MatchedBy: 0, Occurrences: 1}},
		{RuleID: "b", Result: patch.Result{Outcome: patch.OutcomeApplied, MatchedBy: 2, Occurrences: 3}},
		{RuleID: "c", Result: patch.Result{Outcome: patch.OutcomeAlreadyPresent, MatchedBy: patch.NoFallback}},
		{RuleID: "d", Result: patch.Result{Outcome: patch.OutcomeNoMatch, MatchedBy: patch.NoFallback}},
	}}

	want := strings.Join([]string{
		"applied                  a",
		"applied                  b (fallback 2) x3",
		"skipped_already_present  c",
		"skipped_no_match         d",
		"2 applied, 1 already present, 1 no match (4 rules)",
	}, "\n")
	assert.Equal(t, want, report.String())

	_, ok := report.Outcome("missing")
	assert.False(t, ok)
}
