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
	"runtime"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Task processes the i-th target.
type Task func(ctx context.Context, i int) error

// 🏃 Runner executes one task per target
type Runner struct {
	async bool
	limit int
}

// 🏗️ NewRunner creates a new runner. An async runner processes up to
// GOMAXPROCS targets at a time.
func NewRunner(async bool) *Runner {
	return &Runner{
		async: async,
		limit: runtime.GOMAXPROCS(0),
	}
}

// 🏃 Run executes task for 0..n-1 and returns the first error. No task starts
// after a failure or after ctx is cancelled.
func (r *Runner) Run(ctx context.Context, n int, task Task) error {
	if r.async {
		return r.runAsync(ctx, n, task)
	}
	return r.runSync(ctx, n, task)
}

// 🔄 runSync runs the tasks one after another
func (r *Runner) runSync(ctx context.Context, n int, task Task) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		if err := task(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// ⚡ runAsync runs the tasks concurrently
func (r *Runner) runAsync(ctx context.Context, n int, task Task) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Errorf("operation cancelled: %w", err)
			}
			return task(gctx, i)
		})
	}

	return g.Wait()
}
