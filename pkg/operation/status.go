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
)

// Status runs the rules without writing anything and returns true when any
// rule would still apply to any target.
func (o *operator) Status(ctx context.Context) (bool, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("checking status")

	if err := o.state.Load(ctx); err != nil {
		return false, errors.Errorf("loading state: %w", err)
	}
	if stateHash, configHash := o.state.ConfigHash(), o.cfg.Hash(); stateHash != "" && stateHash != configHash {
		logger.Debug().
			Str("state_hash", stateHash).
			Str("config_hash", configHash).
			Msg("config has changed since the last run")
	}

	targets, err := o.run(ctx, false)
	if err != nil {
		return false, err
	}

	pending := false
	for _, t := range targets {
		if t.Report.Changed() {
			pending = true
			continue
		}
		if t.Changed() {
			logger.Debug().Str("target", o.display(t.Path)).Msg("only line endings differ")
		}
	}

	logger.Debug().Bool("pending", pending).Msg("status checked")
	return pending, nil
}
