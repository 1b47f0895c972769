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
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
)

// 🧹 Clean removes the state lock and the backup of every target. It returns
// the files it removed; files that did not exist are skipped.
func (o *operator) Clean(ctx context.Context) ([]string, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("cleaning")

	targets, err := o.cfg.ResolveTargets(ctx)
	if err != nil {
		return nil, errors.Errorf("resolving targets: %w", err)
	}

	var removed []string
	for _, target := range targets {
		backup := document.BackupPath(target)
		if err := os.Remove(backup); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errs.Wrapf(err, errs.CodeWrite, "removing backup of %s", o.display(target))
		}
		logger.Debug().Str("path", backup).Msg("removed backup")
		removed = append(removed, backup)
	}

	if _, err := os.Stat(o.state.Path()); err == nil {
		if err := o.state.Remove(ctx); err != nil {
			return removed, errors.Errorf("removing state: %w", err)
		}
		removed = append(removed, o.state.Path())
	}

	return removed, nil
}

// 🔄 Restore puts every target that has a backup back to its backed up
// content and removes the backup. It returns the restored targets.
func (o *operator) Restore(ctx context.Context) ([]string, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("restoring")

	targets, err := o.cfg.ResolveTargets(ctx)
	if err != nil {
		return nil, errors.Errorf("resolving targets: %w", err)
	}

	var restored []string
	for _, target := range targets {
		if _, err := os.Stat(document.BackupPath(target)); os.IsNotExist(err) {
			logger.Debug().Str("target", o.display(target)).Msg("no backup")
			continue
		}
		if err := document.Restore(ctx, target); err != nil {
			return restored, errors.Errorf("restoring %s: %w", o.display(target), err)
		}
		restored = append(restored, target)
	}

	return restored, nil
}
