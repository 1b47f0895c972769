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
	"strings"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/pattern"
)

// Transform rewrites doc at a matched location and returns the new document.
// Transforms used with Rule.All must only touch text at or after m.Start.
type Transform func(doc document.Document, m pattern.Match) document.Document

// Replace substitutes the matched text. Submatch references (\1) in text are
// expanded against the match.
func Replace(text string) Transform {
	return func(doc document.Document, m pattern.Match) document.Document {
		s := string(doc)
		return document.Document(s[:m.Start] + m.Expand(s, text) + s[m.End:])
	}
}

// InsertBefore inserts text immediately before the match.
func InsertBefore(text string) Transform {
	return func(doc document.Document, m pattern.Match) document.Document {
		s := string(doc)
		return document.Document(s[:m.Start] + m.Expand(s, text) + s[m.Start:])
	}
}

// InsertAfter inserts text immediately after the match.
func InsertAfter(text string) Transform {
	return func(doc document.Document, m pattern.Match) document.Document {
		s := string(doc)
		return document.Document(s[:m.End] + m.Expand(s, text) + s[m.End:])
	}
}

// Delete removes the matched text.
func Delete() Transform {
	return func(doc document.Document, m pattern.Match) document.Document {
		s := string(doc)
		return document.Document(s[:m.Start] + s[m.End:])
	}
}

// Keep leaves the document as it is.
func Keep() Transform {
	return func(doc document.Document, _ pattern.Match) document.Document {
		return doc
	}
}

// Func adapts a function over the matched text; fn receives the text and
// returns its replacement.
func Func(fn func(matched string) string) Transform {
	return func(doc document.Document, m pattern.Match) document.Document {
		s := string(doc)
		return document.Document(s[:m.Start] + fn(m.Text(s)) + s[m.End:])
	}
}

// Action names a transform in config files.
type Action string

const (
	ActionReplace      Action = "replace"
	ActionInsertBefore Action = "insert_before"
	ActionInsertAfter  Action = "insert_after"
	ActionDelete       Action = "delete"
	ActionCheck        Action = "check" // verify only, never edits
)

// Transform builds the transform for the action.
func (a Action) Transform(text string) (Transform, error) {
	switch Action(strings.ToLower(string(a))) {
	case ActionReplace:
		return Replace(text), nil
	case ActionInsertBefore:
		if text == "" {
			return nil, errs.Newf(errs.CodePatternConfig, "action %q needs text", a)
		}
		return InsertBefore(text), nil
	case ActionInsertAfter:
		if text == "" {
			return nil, errs.Newf(errs.CodePatternConfig, "action %q needs text", a)
		}
		return InsertAfter(text), nil
	case ActionDelete:
		if text != "" {
			return nil, errs.Newf(errs.CodePatternConfig, "action %q takes no text", a)
		}
		return Delete(), nil
	case ActionCheck:
		if text != "" {
			return nil, errs.Newf(errs.CodePatternConfig, "action %q takes no text", a)
		}
		return Keep(), nil
	default:
		return nil, errs.Newf(errs.CodePatternConfig, "unknown action %q (want replace, insert_before, insert_after, delete or check)", a)
	}
}

// Inserts reports whether the action adds text without consuming the match.
func (a Action) Inserts() bool {
	switch Action(strings.ToLower(string(a))) {
	case ActionInsertBefore, ActionInsertAfter:
		return true
	}
	return false
}

// Verifies reports whether the action only checks for its pattern.
func (a Action) Verifies() bool {
	return Action(strings.ToLower(string(a))) == ActionCheck
}
