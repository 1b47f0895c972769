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
	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/pattern"
)

// AlreadyApplied reports whether marker occurs anywhere in doc. A nil marker
// never matches; such a rule relies on its precondition disappearing once
// applied.
func AlreadyApplied(doc document.Document, marker *pattern.Pattern) bool {
	if marker == nil {
		return false
	}
	return pattern.Contains(string(doc), marker)
}
