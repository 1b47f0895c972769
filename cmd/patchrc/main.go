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

package main

import (
	"context"
	"errors"
	"os"

	"github.com/pterm/pterm"

	"github.com/walteh/patchrc/cmd/patchrc/commands"
	"github.com/walteh/patchrc/pkg/errs"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		code := exitCode(err)
		if code != exitPending {
			pterm.Error.WithWriter(os.Stderr).Println(err)
		}
		os.Exit(code)
	}
}

const (
	exitError          = 1
	exitPending        = 2
	exitPersistentMiss = 3
)

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, commands.ErrPending):
		return exitPending
	case errors.Is(err, errs.PersistentMissError):
		return exitPersistentMiss
	default:
		return exitError
	}
}
