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
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/operation"
)

func NewCleanCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the state lock and backups",
		Long: `Clean removes the files patchrc writes next to its targets.
It will:
1. Remove the .bak backup of every target
2. Remove the state lock
Patched targets are left as they are.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			op, err := opts.Operator(operation.Options{})
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			removed, err := op.Clean(ctx)
			for _, path := range removed {
				opts.UserLogger.LogFileChange(log.FileChange{Type: log.ChangeRemoved, Path: path})
			}
			if err != nil {
				return errors.Errorf("cleaning: %w", err)
			}
			if len(removed) == 0 {
				opts.UserLogger.LogStateChange("nothing to clean")
			}
			return nil
		},
	}

	return cmd
}

func NewRestoreCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore targets from their backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			op, err := opts.Operator(operation.Options{})
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			restored, err := op.Restore(ctx)
			for _, path := range restored {
				opts.UserLogger.LogFileChange(log.FileChange{Type: log.ChangeRestored, Path: path})
			}
			if err != nil {
				return errors.Errorf("restoring: %w", err)
			}
			if len(restored) == 0 {
				opts.Logger.Warning("no backups found")
			}
			return nil
		},
	}

	return cmd
}
