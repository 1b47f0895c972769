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

package commands

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/operation"
)

// ErrPending is returned by status when a rule would still apply.
var ErrPending = errors.New("rules pending")

func NewStatusCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether any rule would still apply",
		Long: `Status runs every rule without writing anything.
It will:
1. Report the outcome of each rule on each target
2. Exit with status 2 when any rule would still apply`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			op, err := opts.Operator(operation.Options{})
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			pending, err := op.Status(ctx)
			if err != nil {
				return errors.Errorf("checking status: %w", err)
			}

			opts.Logger.LogNewline()
			if pending {
				opts.UserLogger.LogValidation(false, "rules are pending, run patchrc apply", nil)
				return ErrPending
			}
			opts.UserLogger.LogValidation(true, "all rules are applied", nil)
			return nil
		},
	}

	return cmd
}
