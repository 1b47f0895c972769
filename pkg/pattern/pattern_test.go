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

package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/errs"
)

func TestFind(t *testing.T) {
	doc := "let viewMode = 'today';\nfunction render(a, b) {\n    return a;\n}\nfunction render(c) {}\n"

	tests := []struct {
		name      string
		pattern   *Pattern
		wantFound bool
		wantText  string
		wantStart int
	}{
		{
			name:      "literal_leftmost",
			pattern:   MustLiteral("function render("),
			wantFound: true,
			wantText:  "function render(",
			wantStart: 24,
		},
		{
			name:      "literal_case_sensitive",
			pattern:   MustLiteral("Function render("),
			wantFound: false,
		},
		{
			name:      "literal_no_whitespace_normalization",
			pattern:   MustLiteral("let viewMode  = 'today';"),
			wantFound: false,
		},
		{
			name:      "literal_multiline",
			pattern:   MustLiteral("{\n    return a;\n}"),
			wantFound: true,
			wantText:  "{\n    return a;\n}",
			wantStart: 46,
		},
		{
			name:      "structured_parameter_list",
			pattern:   MustStructured("function render({{not:)}}) {"),
			wantFound: true,
			wantText:  "function render(a, b) {",
			wantStart: 24,
		},
		{
			name:      "structured_non_greedy_stops_at_first_anchor",
			pattern:   MustStructured("function{{any}}}"),
			wantFound: true,
			wantText:  "function render(a, b) {\n    return a;\n}",
			wantStart: 24,
		},
		{
			name:      "structured_bounded_gap_too_short",
			pattern:   MustStructured("viewMode{{any:3}}today"),
			wantFound: false,
		},
		{
			name:      "regex",
			pattern:   MustRegex(`render\((\w)\)`),
			wantFound: true,
			wantText:  "render(c)",
			wantStart: 73,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Find(doc, tt.pattern)
			assert.Equal(t, tt.wantFound, ok)
			if !tt.wantFound {
				return
			}
			assert.Equal(t, tt.wantText, m.Text(doc))
			assert.Equal(t, tt.wantStart, m.Start)
			assert.Equal(t, tt.wantStart+len(tt.wantText), m.End)
		})
	}
}

func TestFindAll(t *testing.T) {
	doc := "a-b a-b a-b"

	lit := FindAll(doc, MustLiteral("a-b"))
	require.Len(t, lit, 3)
	assert.Equal(t, []int{0, 4, 8}, []int{lit[0].Start, lit[1].Start, lit[2].Start})

	// overlapping candidates are not reported twice
	assert.Len(t, FindAll("aaaa", MustLiteral("aa")), 2)

	st := FindAll(doc, MustStructured("a{{not: }}b"))
	assert.Len(t, st, 3)

	assert.Empty(t, FindAll(doc, MustLiteral("zzz")))
}

func TestContains(t *testing.T) {
	doc := "const tomorrowCount = getTomorrowPatients().length;"
	assert.True(t, Contains(doc, MustLiteral("tomorrowCount")))
	assert.True(t, Contains(doc, MustStructured("const {{not: }} = get{{not:(}}()")))
	assert.False(t, Contains(doc, MustRegex(`todayCount\b`)))
}

func TestZeroWidthRegex(t *testing.T) {
	doc := "let viewMode = 'list';\n"

	boundary := MustRegex(`\b`)
	_, ok := Find(doc, boundary)
	assert.False(t, ok, "word boundaries have no width")
	assert.Empty(t, FindAll(doc, boundary))
	assert.False(t, Contains(doc, boundary))

	// a real match after zero-width candidates is still found
	mode := MustRegex(`\b|'\w+'`)
	m, ok := Find(doc, mode)
	require.True(t, ok)
	assert.Equal(t, "'list'", m.Text(doc))
	require.Len(t, FindAll(doc, mode), 1)

	_, err := Regex(`(?m)$`)
	assert.True(t, errors.Is(err, errs.PatternConfigurationError), "matches the empty string")
}

func TestMatchExpand(t *testing.T) {
	doc := "return { ...p, nextAppointment: data.appointmentTime };"
	p := MustStructured("return { ...p, nextAppointment: {{not:}}}}")

	m, ok := Find(doc, p)
	require.True(t, ok)
	assert.Equal(t, 1, m.NumGroups())
	assert.Equal(t, "data.appointmentTime ", m.Group(doc, 1))

	got := m.Expand(doc, "return { ...p, nextAppointment: \\1, confirmed: true }")
	assert.Equal(t, "return { ...p, nextAppointment: data.appointmentTime , confirmed: true }", got)

	// template literals and stray backslashes are copied verbatim
	assert.Equal(t, "`${count}` \\n", m.Expand(doc, "`${count}` \\n"))
	assert.Equal(t, m.Text(doc), m.Expand(doc, `\0`))
	assert.Equal(t, "", m.Expand(doc, `\7`))
}

func TestLiteralMatchGroups(t *testing.T) {
	doc := "abc"
	m, ok := Find(doc, MustLiteral("b"))
	require.True(t, ok)
	assert.Equal(t, 0, m.NumGroups())
	assert.Equal(t, "b", m.Group(doc, 0))
	assert.Equal(t, "[b]", m.Expand(doc, `[\0]`))
}

func TestConstructorErrors(t *testing.T) {
	tests := []struct {
		name        string
		build       func() (*Pattern, error)
		errContains string
	}{
		{
			name:        "empty_literal",
			build:       func() (*Pattern, error) { return Literal("") },
			errContains: "literal pattern is empty",
		},
		{
			name:        "empty_regex",
			build:       func() (*Pattern, error) { return Regex("") },
			errContains: "regex pattern is empty",
		},
		{
			name:        "invalid_regex",
			build:       func() (*Pattern, error) { return Regex("(unclosed") },
			errContains: "compiling regex",
		},
		{
			name:        "regex_matching_empty",
			build:       func() (*Pattern, error) { return Regex("a*") },
			errContains: "matches the empty string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build()
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, errs.PatternConfigurationError), "should be a pattern configuration error")
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, `literal(a\nb)`, MustLiteral("a\nb").String())
	assert.Equal(t, "structured", KindStructured.String())
	long := MustLiteral("0123456789012345678901234567890123456789012345678901234567890123456789")
	assert.Len(t, long.String(), len("literal()")+60)
}
