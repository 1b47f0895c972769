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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/state"
)

// 🩹 Apply patches every target. A dry run only reports.
//
// Targets are recorded in the state lock in target order once all of them
// finished, so async runs produce the same lock as sequential ones. When a
// target fails the run stops and the lock is left as it was. Rules that
// missed for max_consecutive_misses runs in a row do not stop the run; the
// targets and the lock are written first and a PersistentMissError is
// returned with the result.
func (o *operator) Apply(ctx context.Context) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Bool("dry_run", o.dryRun).Msg("applying rules")

	if !o.dryRun {
		if err := o.state.Load(ctx); err != nil {
			return nil, errors.Errorf("loading state: %w", err)
		}
	}

	targets, err := o.run(ctx, !o.dryRun)
	if err != nil {
		return nil, err
	}

	res := &Result{Targets: targets}
	if o.dryRun {
		return res, nil
	}

	paths := make([]string, 0, len(targets))
	for _, t := range targets {
		paths = append(paths, t.Path)
		res.Escalations = append(res.Escalations,
			o.state.Record(t.Path, t.Report, t.Checksum(), o.cfg.MaxConsecutiveMisses)...)
	}
	o.state.Prune(paths, o.ruleIDs())
	res.RunID = o.state.Begin(o.cfg.Hash())

	if err := ctx.Err(); err != nil {
		return res, errors.Errorf("operation cancelled: %w", err)
	}
	if err := o.state.Save(ctx); err != nil {
		return res, errors.Errorf("saving state: %w", err)
	}

	logger.Debug().
		Str("run_id", res.RunID).
		Int("written", len(res.Written())).
		Int("escalations", len(res.Escalations)).
		Msg("apply complete")

	if err := state.EscalationError(res.Escalations); err != nil {
		return res, err
	}
	return res, nil
}
