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
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/operation"
)

func NewApplyCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		dryRun   bool
		async    bool
		noBackup bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the rules to every target",
		Long: `Apply runs every rule, in order, against every target.
It will:
1. Skip rules whose result is already present
2. Apply rules whose pattern or a fallback matches
3. Report rules that match nothing, without failing
4. Back up and rewrite targets that changed
5. Record the outcomes in the state lock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			op, err := opts.Operator(operation.Options{
				DryRun:   dryRun,
				Async:    async,
				NoBackup: noBackup,
			})
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			if dryRun {
				opts.Logger.Header("checking " + opts.Config.String())
			} else {
				opts.Logger.Header("applying " + opts.Config.String())
			}

			res, err := op.Apply(ctx)
			if res != nil {
				logApplyResult(opts, res, dryRun)
			}
			if err != nil {
				return errors.Errorf("applying rules: %w", err)
			}
			if !dryRun {
				opts.Logger.Successf("%d of %d targets patched", len(res.Written()), len(res.Targets))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&async, "async", false, "patch targets concurrently")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "do not write .bak backups")

	return cmd
}

func logApplyResult(opts *opts.RootOpts, res *operation.Result, dryRun bool) {
	opts.Logger.LogNewline()
	for _, t := range res.Targets {
		if t.BackedUp {
			opts.UserLogger.LogFileChange(log.FileChange{Type: log.ChangeBackedUp, Path: t.Path})
		}
		if t.Written {
			opts.UserLogger.LogFileChange(log.FileChange{
				Type:        log.ChangePatched,
				Path:        t.Path,
				Description: fmt.Sprintf("%d rules applied", t.Report.Summary().Applied),
			})
		} else if !dryRun {
			opts.UserLogger.LogFileChange(log.FileChange{Type: log.ChangeUnchanged, Path: t.Path})
		}
	}

	if dryRun {
		opts.UserLogger.LogStateChange(res.Summary().String())
		return
	}
	opts.UserLogger.LogStateChange(fmt.Sprintf("run %s: %s", res.RunID, res.Summary()))
}
