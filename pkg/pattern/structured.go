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
	"strconv"
	"strings"

	"github.com/walteh/patchrc/pkg/errs"
)

// maxGapBound is the largest repeat count RE2 accepts.
const maxGapBound = 1000

// GapKind is the kind of a wildcard gap in a structured template.
type GapKind int

const (
	GapAny        GapKind = iota // {{any}} or {{any:N}}
	GapNot                       // {{not:X}}
	GapNewline                   // {{nl}}
	GapWhitespace                // {{ws}}
)

// variable reports whether the gap can absorb arbitrary content. Two
// variable gaps in a row have no anchor to split them and are rejected.
func (g GapKind) variable() bool {
	return g == GapAny || g == GapNot
}

// Segment is one parsed piece of a structured template: either an anchor
// (Literal set) or a gap.
type Segment struct {
	Literal string
	Gap     GapKind
	IsGap   bool
	Max     int    // GapAny bound, 0 means unbounded
	Except  string // GapNot delimiter set
}

// Structured compiles a template of literal anchors and gap tokens:
//
//	{{any}}     any characters, newlines included, as few as possible
//	{{any:N}}   the same, at most N characters
//	{{not:X}}   any characters except those in X, as few as possible
//	{{nl}}      one line break, \n or \r\n
//	{{ws}}      optional spaces and tabs
//	{{{{        a literal "{{"
//
// A single "{" written directly before a token stays literal, so
// "() {{{nl}}" reads as "() {" followed by a line break.
//
// Each gap is a numbered submatch, left to right, usable as \N in
// replacement text. The earliest match wins.
func Structured(template string) (*Pattern, error) {
	segs, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	re, err := compileSegments(segs)
	if err != nil {
		return nil, errs.Wrapf(err, errs.CodePatternConfig, "compiling structured pattern %q", template)
	}
	return &Pattern{kind: KindStructured, source: template, re: re}, nil
}

// ParseTemplate splits a structured template into segments and checks that
// it is well formed.
func ParseTemplate(template string) ([]Segment, error) {
	var segs []Segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, Segment{Literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); {
		if !strings.HasPrefix(template[i:], "{{") {
			lit.WriteByte(template[i])
			i++
			continue
		}
		if strings.HasPrefix(template[i:], "{{{{") {
			lit.WriteString("{{")
			i += 4
			continue
		}
		if strings.HasPrefix(template[i:], "{{{") {
			// "{" right before a token, as in "() {{{nl}}"
			lit.WriteByte('{')
			i++
			continue
		}

		seg, n, err := parseGap(template, i)
		if err != nil {
			return nil, err
		}
		flush()
		segs = append(segs, seg)
		i += n
	}
	flush()

	if err := checkSegments(template, segs); err != nil {
		return nil, err
	}
	return segs, nil
}

// parseGap parses the token starting at template[at] ("{{...}}") and returns
// it with the number of bytes consumed.
func parseGap(template string, at int) (Segment, int, error) {
	body := template[at+2:]

	name := body
	if i := strings.IndexAny(body, ":}"); i >= 0 {
		name = body[:i]
	}

	switch name {
	case "not":
		if !strings.HasPrefix(body, "not:") {
			return Segment{}, 0, tokenError(template, at, "{{not}} needs a delimiter set, as in {{not:)}}")
		}
		// the set is never empty, so the closing braces are searched one
		// byte past the colon; this lets "}" itself be excluded: {{not:}}}
		rest := body[len("not:"):]
		if rest == "" || strings.HasPrefix(rest, "}}") && !strings.HasPrefix(rest, "}}}") {
			return Segment{}, 0, tokenError(template, at, "{{not:}} has an empty delimiter set")
		}
		end := strings.Index(rest[1:], "}}")
		if end < 0 {
			return Segment{}, 0, tokenError(template, at, "unterminated gap token")
		}
		except := rest[:end+1]
		return Segment{IsGap: true, Gap: GapNot, Except: except}, 2 + len("not:") + len(except) + 2, nil
	case "any":
		if strings.HasPrefix(body, "any}}") {
			return Segment{IsGap: true, Gap: GapAny}, len("{{any}}"), nil
		}
		if !strings.HasPrefix(body, "any:") {
			return Segment{}, 0, tokenError(template, at, "unterminated gap token")
		}
		end := strings.Index(body, "}}")
		if end < 0 {
			return Segment{}, 0, tokenError(template, at, "unterminated gap token")
		}
		raw := body[len("any:"):end]
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Segment{}, 0, tokenError(template, at, fmt.Sprintf("{{any:N}} bound %q is not a positive integer", raw))
		}
		if n > maxGapBound {
			return Segment{}, 0, tokenError(template, at, fmt.Sprintf("{{any:N}} bound %d exceeds %d", n, maxGapBound))
		}
		return Segment{IsGap: true, Gap: GapAny, Max: n}, 2 + end + 2, nil
	case "nl", "ws":
		if !strings.HasPrefix(body, name+"}}") {
			return Segment{}, 0, tokenError(template, at, "unterminated gap token")
		}
		kind := GapNewline
		if name == "ws" {
			kind = GapWhitespace
		}
		return Segment{IsGap: true, Gap: kind}, 2 + len(name) + 2, nil
	default:
		if !strings.Contains(body, "}}") {
			return Segment{}, 0, tokenError(template, at, "unterminated gap token")
		}
		return Segment{}, 0, tokenError(template, at, fmt.Sprintf("unknown gap token %q", name))
	}
}

func checkSegments(template string, segs []Segment) error {
	anchored := false
	for i, s := range segs {
		if !s.IsGap {
			anchored = true
			continue
		}
		if !s.Gap.variable() {
			continue
		}
		if i == 0 || i == len(segs)-1 {
			return errs.Newf(errs.CodePatternConfig, "structured pattern %q starts or ends with a wildcard gap", template)
		}
		if segs[i-1].IsGap && segs[i-1].Gap.variable() {
			return errs.Newf(errs.CodePatternConfig, "structured pattern %q has two adjacent wildcard gaps", template)
		}
	}
	if !anchored {
		return errs.Newf(errs.CodePatternConfig, "structured pattern %q has no literal anchor", template)
	}
	return nil
}

func compileSegments(segs []Segment) (*regexp.Regexp, error) {
	var b strings.Builder
	for _, s := range segs {
		if !s.IsGap {
			b.WriteString(regexp.QuoteMeta(s.Literal))
			continue
		}
		switch s.Gap {
		case GapAny:
			if s.Max > 0 {
				fmt.Fprintf(&b, "((?s:.{0,%d}?))", s.Max)
			} else {
				b.WriteString("((?s:.*?))")
			}
		case GapNot:
			b.WriteString("([^")
			for _, r := range s.Except {
				fmt.Fprintf(&b, `\x{%x}`, r)
			}
			b.WriteString("]*?)")
		case GapNewline:
			b.WriteString(`(\r?\n)`)
		case GapWhitespace:
			b.WriteString(`([ \t]*)`)
		}
	}
	return regexp.Compile(b.String())
}

func tokenError(template string, at int, msg string) error {
	return errs.Newf(errs.CodePatternConfig, "structured pattern %q: %s", template, msg).
		WithDetail("offset", at)
}
