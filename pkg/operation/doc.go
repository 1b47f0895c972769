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
Package operation runs a loaded rule set against its targets.

🎯 Purpose:
- Resolves the configured targets
- Runs the rule pipeline over each target
- Writes changed targets and keeps the state lock current

🔄 Flow of Apply:
 1. Load .patchrc.lock
 2. For each target, one at a time or concurrently:
    load, run the pipeline, back up and save when the bytes would change
 3. Record every report in the lock, in target order
 4. Save the lock, then report persistent misses

⚡ Other operations:
- Status and Diff are dry runs; nothing on disk changes
- Clean removes the lock and the .bak files
- Restore puts targets back from their .bak files

🔍 Example:

	op, err := operation.New(operation.Options{Config: cfg})
	if err != nil {
		return err
	}
	res, err := op.Apply(ctx)

A target that cannot be read or written stops the run before the lock is
touched. Rules that do not match never do.
*/
package operation
