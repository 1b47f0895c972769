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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/cmd/patchrc/commands"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/log"
)

// skipConfig marks commands that run without a config file
const skipConfig = "skip-config"

func newRootCmd() *cobra.Command {
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "patchrc",
		Short: "Apply idempotent text patches to files",
		Long: `patchrc applies an ordered list of text rules to the files named in a
config file. Every rule checks for its own result first, so running it again
changes nothing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd, rootOpts.Debug)
			cmd.SetContext(ctx)

			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}

			cfg, err := config.Load(ctx, rootOpts.ConfigFile)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}

			level := zerolog.Disabled
			if rootOpts.Debug {
				level = zerolog.DebugLevel
			}

			rootOpts.Config = cfg
			rootOpts.Logger = log.New(cmd.OutOrStdout(), level)
			rootOpts.UserLogger = log.NewUserLogger(ctx, cmd.OutOrStdout())
			return nil
		},
	}

	addRootFlags(cmd, rootOpts)

	cmd.AddCommand(
		commands.NewApplyCmd(rootOpts),
		commands.NewStatusCmd(rootOpts),
		commands.NewDiffCmd(rootOpts),
		commands.NewCleanCmd(rootOpts),
		commands.NewRestoreCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

func addRootFlags(cmd *cobra.Command, rootOpts *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&rootOpts.ConfigFile, "config", "c", config.DefaultFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&rootOpts.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging installs the zerolog logger every package reads from the
// context and returns that context.
func setupLogging(cmd *cobra.Command, debug bool) context.Context {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger.WithContext(cmd.Context())
}
