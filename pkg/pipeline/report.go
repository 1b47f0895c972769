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
	"fmt"
	"strings"

	"github.com/walteh/patchrc/pkg/patch"
)

// Entry is the outcome of one rule.
type Entry struct {
	RuleID      string
	Description string
	patch.Result
}

// 📋 Report lists every rule outcome of one run, in execution order.
type Report struct {
	Entries []Entry
}

// Summary counts outcomes.
type Summary struct {
	Applied        int
	AlreadyPresent int
	NoMatch        int
}

// Total returns the number of rules counted.
func (s Summary) Total() int {
	return s.Applied + s.AlreadyPresent + s.NoMatch
}

func (s Summary) String() string {
	return fmt.Sprintf("%d applied, %d already present, %d no match (%d rules)",
		s.Applied, s.AlreadyPresent, s.NoMatch, s.Total())
}

// Summary counts the outcomes in the report.
func (r *Report) Summary() Summary {
	var s Summary
	for _, e := range r.Entries {
		switch e.Outcome {
		case patch.OutcomeApplied:
			s.Applied++
		case patch.OutcomeAlreadyPresent:
			s.AlreadyPresent++
		case patch.OutcomeNoMatch:
			s.NoMatch++
		}
	}
	return s
}

// Outcome returns the outcome recorded for id.
func (r *Report) Outcome(id string) (patch.Outcome, bool) {
	for _, e := range r.Entries {
		if e.RuleID == id {
			return e.Outcome, true
		}
	}
	return "", false
}

// Changed reports whether any rule applied.
func (r *Report) Changed() bool {
	for _, e := range r.Entries {
		if e.Outcome.Changed() {
			return true
		}
	}
	return false
}

// Misses returns the IDs of rules that did not match.
func (r *Report) Misses() []string {
	var out []string
	for _, e := range r.Entries {
		if e.Outcome == patch.OutcomeNoMatch {
			out = append(out, e.RuleID)
		}
	}
	return out
}

// String renders one line per rule followed by the summary line.
func (r *Report) String() string {
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%-24s %s", e.Outcome, e.RuleID)
		if e.Outcome == patch.OutcomeApplied {
			if e.MatchedBy > 0 {
				fmt.Fprintf(&b, " (fallback %d)", e.MatchedBy)
			}
			if e.Occurrences > 1 {
				fmt.Fprintf(&b, " x%d", e.Occurrences)
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(r.Summary().String())
	return b.String()
}
