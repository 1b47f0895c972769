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

import "github.com/walteh/patchrc/pkg/pattern"

// Outcome is what one rule did to one document.
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"                 // transform ran
	OutcomeAlreadyPresent Outcome = "skipped_already_present" // marker found
	OutcomeNoMatch        Outcome = "skipped_no_match"        // nothing matched
)

// Changed reports whether the outcome produced a new document.
func (o Outcome) Changed() bool {
	return o == OutcomeApplied
}

// NoFallback is MatchedBy for results where no pattern matched.
const NoFallback = -1

// Result details a rule outcome.
type Result struct {
	Outcome Outcome

	// MatchedBy is 0 when the precondition matched, k when the k-th fallback
	// (1-based) matched, and NoFallback otherwise.
	MatchedBy int

	// Pattern is the pattern that decided the outcome: the marker for
	// OutcomeAlreadyPresent, the matching pattern for OutcomeApplied.
	Pattern *pattern.Pattern

	// Occurrences is how many locations were transformed.
	Occurrences int
}
