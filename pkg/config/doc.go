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

/*
Package config loads patchrc rule sets and compiles them into patch rules.

	            +-------------+
	            |   Config    |
	            | (rule set)  |
	            +------+------+
	                   |
	  +--------+-------+-------+--------+
	  |        |               |        |
	+-+--+  +--+---+       +---+--+  +--+---+
	|HCL |  | YAML |       | JSON |  | TOML |
	+----+  +------+       +------+  +------+

🎯 Purpose:
- Decodes a rule set from HCL (default), YAML, JSON or TOML
- Validates targets, options and rule shape
- Compiles patterns and transforms into a pipeline
- Expands target globs relative to the config file

🔄 Flow:
1. Load picks a parser by file extension
2. Validate fills defaults and rejects malformed rules (ConfigError)
3. Pipeline compiles patterns (PatternConfigurationError on bad syntax)
4. ResolveTargets expands literal paths and ** globs

🔍 Example (.patchrc.hcl):

	targets     = ["app/patients.js"]
	line_ending = "crlf"
	max_consecutive_misses = 3

	rule "tomorrow-flag" {
	  action = "insert_after"
	  text   = "\nlet showTomorrow = false;"

	  match    { literal = "let viewMode = 'list';" }
	  fallback { structured = "let viewMode{{ws}}={{ws}}{{not:;}};" }
	}

	rule "today-button" {
	  action = "check"
	  match { literal = "btn-today" }
	}

Insert rules without a marker block use their text as the marker. Check
rules never edit a target; they report already present when their match is
found and no match otherwise, so a missing anchor escalates like any miss.

Rule text and patterns are matched against documents held with LF line
breaks, so CRLF and lone CR in them (including the HCL ${crlf} variable)
are read as LF. The configured line_ending is applied on save. HCL
interpolates "${", so template literals in rule text are written "$${".
*/
package config
