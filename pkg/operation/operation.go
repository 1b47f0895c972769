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

package operation

import (
	"context"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/pipeline"
	"github.com/walteh/patchrc/pkg/state"
)

// 🎯 Operator runs a rule set against its targets
type Operator interface {
	// Apply patches every target and records the run in the state lock
	Apply(ctx context.Context) (*Result, error)
	// Status is a dry run reporting whether any rule would still apply
	Status(ctx context.Context) (bool, error)
	// Diff writes a line diff of every target that would change
	Diff(ctx context.Context, w io.Writer) (bool, error)
	// Clean removes the state lock and target backups
	Clean(ctx context.Context) ([]string, error)
	// Restore puts targets back from their backups
	Restore(ctx context.Context) ([]string, error)
}

// 🔧 Options contains configuration for the operator
type Options struct {
	// Config is the loaded rule set
	Config *config.Config
	// State is the state lock, defaults to the config's state file
	State *state.State
	// Logger prints target reports, defaults to the logger in the context
	Logger *log.Logger

	DryRun   bool
	Async    bool // also turned on by the config
	NoBackup bool
}

// 🎮 operator implements the Operator interface
type operator struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	state    *state.State
	logger   *log.Logger
	runner   *Runner

	dryRun bool
	backup bool
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (Operator, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}

	p, err := opts.Config.Pipeline()
	if err != nil {
		return nil, errors.Errorf("building pipeline: %w", err)
	}

	st := opts.State
	if st == nil {
		st = state.New(opts.Config.StatePath())
	}

	return &operator{
		cfg:      opts.Config,
		pipeline: p,
		state:    st,
		logger:   opts.Logger,
		runner:   NewRunner(opts.Async || opts.Config.Async),
		dryRun:   opts.DryRun,
		backup:   opts.Config.BackupEnabled() && !opts.NoBackup,
	}, nil
}

func (o *operator) console(ctx context.Context) *log.Logger {
	if o.logger != nil {
		return o.logger
	}
	return log.FromContext(ctx)
}

func silentLogger() *log.Logger {
	return log.New(io.Discard, zerolog.Disabled)
}

// display returns path relative to the config directory for output.
func (o *operator) display(path string) string {
	rel, err := filepath.Rel(o.cfg.Dir(), path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (o *operator) ruleIDs() []string {
	rules := o.pipeline.Rules()
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

// run patches every target in memory. With write set, changed targets are
// backed up and saved as they finish.
func (o *operator) run(ctx context.Context, write bool) ([]*TargetResult, error) {
	targets, err := o.cfg.ResolveTargets(ctx)
	if err != nil {
		return nil, errors.Errorf("resolving targets: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Int("targets", len(targets)).
		Int("rules", o.pipeline.Len()).
		Bool("write", write).
		Msg("running rules")

	results := make([]*TargetResult, len(targets))
	err = o.runner.Run(ctx, len(targets), func(ctx context.Context, i int) error {
		res, err := o.patchTarget(ctx, targets[i], write)
		if err != nil {
			return errors.Errorf("patching %s: %w", o.display(targets[i]), err)
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
