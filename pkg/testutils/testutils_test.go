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

package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext(t *testing.T) {
	ctx := Context(t)
	assert.NotEqual(t, zerolog.Disabled, zerolog.Ctx(ctx).GetLevel(), "the logger should be enabled")
}

func TestWriteFilesAndCopyFixture(t *testing.T) {
	src := t.TempDir()
	WriteFiles(t, src, map[string]string{
		"js/app.js":    "let a = 1;\n",
		".patchrc.hcl": "targets = [\"js/app.js\"]\n",
	})

	dst := CopyFixture(t, src)
	assert.NotEqual(t, src, dst)

	data, err := os.ReadFile(filepath.Join(dst, "js", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, "let a = 1;\n", string(data))
	assert.FileExists(t, filepath.Join(dst, ".patchrc.hcl"))
}
