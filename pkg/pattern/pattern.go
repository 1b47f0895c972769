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
	"fmt"
	"regexp"
	"strings"

	"github.com/walteh/patchrc/pkg/errs"
)

// 🏷️ Kind tags the matching strategy of a Pattern.
type Kind int

const (
	KindLiteral    Kind = iota // exact substring
	KindStructured             // anchors with wildcard gaps
	KindRegex                  // raw RE2 expression
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindStructured:
		return "structured"
	case KindRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// 🔍 Pattern is an immutable, compiled matcher. Build one with Literal,
// Structured or Regex; the zero value is not usable.
type Pattern struct {
	kind   Kind
	source string
	re     *regexp.Regexp // nil for literals
}

// Literal returns a pattern matching text byte for byte. Documents loaded
// through the document package hold LF line breaks, so text meant to span
// lines must use "\n"; a "\r\n" in text never matches a loaded document.
func Literal(text string) (*Pattern, error) {
	if text == "" {
		return nil, errs.New(errs.CodePatternConfig, "literal pattern is empty")
	}
	return &Pattern{kind: KindLiteral, source: text}, nil
}

// Regex returns a pattern for a raw RE2 expression. Expressions that can
// match the empty string are rejected since they would match any document.
// Zero-width expressions that cannot match "" (\b, (?m)^x?$ and the like)
// compile, but Find and FindAll skip their zero-width matches.
func Regex(expr string) (*Pattern, error) {
	if expr == "" {
		return nil, errs.New(errs.CodePatternConfig, "regex pattern is empty")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errs.Wrapf(err, errs.CodePatternConfig, "compiling regex %q", expr)
	}
	if re.MatchString("") {
		return nil, errs.Newf(errs.CodePatternConfig, "regex %q matches the empty string", expr)
	}
	return &Pattern{kind: KindRegex, source: expr, re: re}, nil
}

// MustLiteral is Literal for static text; it panics on error.
func MustLiteral(text string) *Pattern {
	p, err := Literal(text)
	if err != nil {
		panic(err)
	}
	return p
}

// MustStructured is Structured for static templates; it panics on error.
func MustStructured(template string) *Pattern {
	p, err := Structured(template)
	if err != nil {
		panic(err)
	}
	return p
}

// MustRegex is Regex for static expressions; it panics on error.
func MustRegex(expr string) *Pattern {
	p, err := Regex(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) Kind() Kind {
	return p.kind
}

// Source returns the text the pattern was built from.
func (p *Pattern) Source() string {
	return p.source
}

// String returns a short single-line description for logs.
func (p *Pattern) String() string {
	src := strings.ReplaceAll(p.source, "\n", `\n`)
	if len(src) > 60 {
		src = src[:57] + "..."
	}
	return fmt.Sprintf("%s(%s)", p.kind, src)
}

// 📍 Match is the location of one occurrence in a document.
type Match struct {
	Start int
	End   int

	// groups holds offset pairs as returned by FindStringSubmatchIndex;
	// pair 0 is the whole match, -1 marks a group that did not participate.
	groups []int
}

// Text returns the matched text.
func (m Match) Text(doc string) string {
	return doc[m.Start:m.End]
}

// Group returns submatch n, or "" if it is absent.
func (m Match) Group(doc string, n int) string {
	if n < 0 || 2*n+1 >= len(m.groups) {
		return ""
	}
	start, end := m.groups[2*n], m.groups[2*n+1]
	if start < 0 {
		return ""
	}
	return doc[start:end]
}

// NumGroups returns the number of submatches, not counting the whole match.
func (m Match) NumGroups() int {
	if len(m.groups) == 0 {
		return 0
	}
	return len(m.groups)/2 - 1
}

// Expand substitutes submatch references in template. A backslash followed by
// a digit N is replaced by submatch N (\0 is the whole match); every other
// character, including "$" and lone backslashes, is copied as is so that
// replacement code containing template literals survives untouched.
func (m Match) Expand(doc, template string) string {
	if !strings.Contains(template, `\`) {
		return template
	}
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '\\' && i+1 < len(template) && template[i+1] >= '0' && template[i+1] <= '9' {
			b.WriteString(m.Group(doc, int(template[i+1]-'0')))
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Find returns the left-most occurrence of p in doc.
func Find(doc string, p *Pattern) (Match, bool) {
	switch p.kind {
	case KindLiteral:
		i := strings.Index(doc, p.source)
		if i < 0 {
			return Match{}, false
		}
		return literalMatch(i, len(p.source)), true
	case KindStructured, KindRegex:
		loc := p.re.FindStringSubmatchIndex(doc)
		if loc == nil {
			return Match{}, false
		}
		if loc[1] == loc[0] {
			// zero width, look for a real match further on
			for _, loc := range p.re.FindAllStringSubmatchIndex(doc, -1) {
				if loc[1] > loc[0] {
					return Match{Start: loc[0], End: loc[1], groups: loc}, true
				}
			}
			return Match{}, false
		}
		return Match{Start: loc[0], End: loc[1], groups: loc}, true
	default:
		panic(fmt.Sprintf("pattern: unknown kind %d", p.kind))
	}
}

// FindAll returns every non-overlapping occurrence of p, left to right.
func FindAll(doc string, p *Pattern) []Match {
	var out []Match
	switch p.kind {
	case KindLiteral:
		offset := 0
		for {
			i := strings.Index(doc[offset:], p.source)
			if i < 0 {
				break
			}
			out = append(out, literalMatch(offset+i, len(p.source)))
			offset += i + len(p.source)
		}
	case KindStructured, KindRegex:
		for _, loc := range p.re.FindAllStringSubmatchIndex(doc, -1) {
			if loc[1] == loc[0] {
				continue
			}
			out = append(out, Match{Start: loc[0], End: loc[1], groups: loc})
		}
	default:
		panic(fmt.Sprintf("pattern: unknown kind %d", p.kind))
	}
	return out
}

// Contains reports whether p occurs anywhere in doc.
func Contains(doc string, p *Pattern) bool {
	if p.kind == KindLiteral {
		return strings.Contains(doc, p.source)
	}
	_, ok := Find(doc, p)
	return ok
}

func literalMatch(start, n int) Match {
	return Match{Start: start, End: start + n, groups: []int{start, start + n}}
}
