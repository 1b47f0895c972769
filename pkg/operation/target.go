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
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/pipeline"
	"github.com/walteh/patchrc/pkg/state"
)

// 📄 TargetResult is what one run did to one target.
type TargetResult struct {
	Path   string
	Report *pipeline.Report
	Info   *document.Info

	Before document.Document
	After  document.Document

	Written  bool
	BackedUp bool

	opts    document.SaveOptions
	encoded []byte
}

// Changed reports whether saving the result changes the file on disk. This is
// true when a rule applied or when only the line endings differ.
func (t *TargetResult) Changed() bool {
	return document.Checksum(t.encoded) != t.Info.Checksum
}

// Checksum returns the checksum of the target as saved.
func (t *TargetResult) Checksum() string {
	return document.Checksum(t.encoded)
}

// 📊 Result is the outcome of one Apply.
type Result struct {
	RunID       string
	Targets     []*TargetResult
	Escalations []state.Escalation
}

// Summary adds up the rule outcomes of every target.
func (r *Result) Summary() pipeline.Summary {
	var total pipeline.Summary
	for _, t := range r.Targets {
		s := t.Report.Summary()
		total.Applied += s.Applied
		total.AlreadyPresent += s.AlreadyPresent
		total.NoMatch += s.NoMatch
	}
	return total
}

// Written returns the targets that were saved.
func (r *Result) Written() []*TargetResult {
	var out []*TargetResult
	for _, t := range r.Targets {
		if t.Written {
			out = append(out, t)
		}
	}
	return out
}

// patchTarget loads one target, runs the pipeline over it and, when write is
// set and the bytes on disk would change, backs it up and saves it. Any
// failure leaves the target as it was.
func (o *operator) patchTarget(ctx context.Context, path string, write bool) (*TargetResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("target", o.display(path)).Logger()
	ctx = logger.WithContext(ctx)

	doc, info, err := document.Load(ctx, path)
	if err != nil {
		return nil, errors.Errorf("loading target: %w", err)
	}
	if info.Mixed {
		logger.Debug().Stringer("dominant", info.LineEnding).Msg("target has mixed line endings")
	}

	after, report := o.pipeline.Run(ctx, doc)

	opts := o.cfg.SaveOptions()
	opts.BOM = info.BOM
	opts.Mode = info.Mode

	res := &TargetResult{
		Path:    path,
		Report:  report,
		Info:    info,
		Before:  doc,
		After:   after,
		opts:    opts,
		encoded: document.Encode(after, opts),
	}

	if write && res.Changed() {
		if err := o.save(ctx, res); err != nil {
			return nil, err
		}
	}

	o.console(ctx).LogTargetReport(ctx, log.TargetOperation{Path: o.display(path), DryRun: !write}, report)
	return res, nil
}

// save writes a changed target. The first write keeps a backup of the
// original; later runs leave that backup alone so Restore returns the file to
// its unpatched form.
func (o *operator) save(ctx context.Context, res *TargetResult) error {
	if o.backup {
		if _, err := os.Stat(document.BackupPath(res.Path)); os.IsNotExist(err) {
			if err := document.Backup(ctx, res.Path); err != nil {
				return errors.Errorf("backing up target: %w", err)
			}
			res.BackedUp = true
		}
	}

	if err := document.Save(ctx, res.Path, res.After, res.opts); err != nil {
		return errors.Errorf("saving target: %w", err)
	}
	res.Written = true

	zerolog.Ctx(ctx).Debug().
		Int("bytes", len(res.encoded)).
		Bool("backed_up", res.BackedUp).
		Msg("target saved")
	return nil
}
