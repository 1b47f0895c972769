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

package config

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
)

// isGlob reports whether a target uses doublestar syntax.
func isGlob(target string) bool {
	return strings.ContainsAny(target, "*?[{")
}

// 🎯 ResolveTargets expands the configured targets into absolute file paths,
// relative to the config directory, in declaration order. A literal target
// that does not exist, or a glob that matches nothing, is a read error.
func (cfg *Config) ResolveTargets(ctx context.Context) ([]string, error) {
	logger := zerolog.Ctx(ctx)
	base := cfg.Dir()

	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, target := range cfg.Targets {
		pat := filepath.FromSlash(strings.TrimSpace(target))
		if !filepath.IsAbs(pat) {
			pat = filepath.Join(base, pat)
		}

		if !isGlob(target) {
			info, err := os.Stat(pat)
			if err != nil {
				return nil, errs.Wrapf(err, errs.CodeRead, "target %s", target)
			}
			if info.IsDir() {
				return nil, errs.Newf(errs.CodeRead, "target %s is a directory", target)
			}
			add(pat)
			continue
		}

		matches, err := doublestar.FilepathGlob(pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errs.Wrapf(err, errs.CodeConfig, "target glob %s", target)
		}
		sort.Strings(matches)

		kept := 0
		for _, m := range matches {
			if cfg.isSidecar(m) {
				continue
			}
			add(m)
			kept++
		}
		if kept == 0 {
			return nil, errs.Newf(errs.CodeRead, "target glob %s matched no files", target)
		}
		logger.Debug().Str("glob", target).Int("matches", kept).Msg("expanded target glob")
	}

	return out, nil
}

// isSidecar reports the config file and the files patchrc writes itself,
// which globs must skip.
func (cfg *Config) isSidecar(path string) bool {
	return path == document.BackupPath(strings.TrimSuffix(path, ".bak")) ||
		strings.HasSuffix(path, ".tmp") ||
		path == cfg.StatePath() ||
		path == cfg.location
}
