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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/patch"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = ".patchrc.hcl"

// DefaultStateFile is the state lock written next to the config file.
const DefaultStateFile = ".patchrc.lock"

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes; filename is used in diagnostics
	Parse(ctx context.Context, filename string, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔍 PatternConfig declares one pattern; exactly one field is set.
type PatternConfig struct {
	Literal    *string `json:"literal,omitempty" yaml:"literal,omitempty" toml:"literal,omitempty"`
	Structured *string `json:"structured,omitempty" yaml:"structured,omitempty" toml:"structured,omitempty"`
	Regex      *string `json:"regex,omitempty" yaml:"regex,omitempty" toml:"regex,omitempty"`
}

func (p PatternConfig) count() int {
	n := 0
	for _, s := range []*string{p.Literal, p.Structured, p.Regex} {
		if s != nil {
			n++
		}
	}
	return n
}

// 🔧 RuleConfig declares one patch rule.
type RuleConfig struct {
	ID          string          `json:"id" yaml:"id" toml:"id"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Match       PatternConfig   `json:"match" yaml:"match" toml:"match"`
	Fallbacks   []PatternConfig `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty" toml:"fallback,omitempty"`
	Marker      *PatternConfig  `json:"marker,omitempty" yaml:"marker,omitempty" toml:"marker,omitempty"`
	Action      string          `json:"action,omitempty" yaml:"action,omitempty" toml:"action,omitempty"`
	Text        string          `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	All         bool            `json:"all,omitempty" yaml:"all,omitempty" toml:"all,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Targets              []string     `json:"targets" yaml:"targets" toml:"targets"`
	LineEnding           string       `json:"line_ending,omitempty" yaml:"line_ending,omitempty" toml:"line_ending,omitempty"`
	Backup               *bool        `json:"backup,omitempty" yaml:"backup,omitempty" toml:"backup,omitempty"`
	MaxConsecutiveMisses int          `json:"max_consecutive_misses,omitempty" yaml:"max_consecutive_misses,omitempty" toml:"max_consecutive_misses,omitempty"`
	Async                bool         `json:"async,omitempty" yaml:"async,omitempty" toml:"async,omitempty"`
	StateFile            string       `json:"state_file,omitempty" yaml:"state_file,omitempty" toml:"state_file,omitempty"`
	Rules                []RuleConfig `json:"rules" yaml:"rules" toml:"rule"`

	// location is the path the config was loaded from
	location string
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, errs.CodeConfig, "reading config file %s", path)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errs.Newf(errs.CodeConfig, "no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, path, data)
	if err != nil {
		return nil, errs.Wrapf(err, errs.CodeConfig, "parsing config %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}
	cfg.location = abs

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().
		Int("targets", len(cfg.Targets)).
		Int("rules", len(cfg.Rules)).
		Msg("configuration loaded")

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and fills defaults.
// Pattern syntax is checked later by BuildRules.
func (cfg *Config) Validate() error {
	if len(cfg.Targets) == 0 {
		return errs.New(errs.CodeConfig, "at least one target is required")
	}
	for i, t := range cfg.Targets {
		if strings.TrimSpace(t) == "" {
			return errs.Newf(errs.CodeConfig, "target %d is empty", i+1)
		}
	}

	if _, err := document.ParseLineEnding(cfg.LineEnding); err != nil {
		return errs.Wrap(err, errs.CodeConfig, "line_ending")
	}

	if cfg.MaxConsecutiveMisses < 0 {
		return errs.Newf(errs.CodeConfig, "max_consecutive_misses must not be negative, got %d", cfg.MaxConsecutiveMisses)
	}

	if len(cfg.Rules) == 0 {
		return errs.New(errs.CodeConfig, "at least one rule is required")
	}

	seen := make(map[string]bool, len(cfg.Rules))
	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		if err := r.validate(); err != nil {
			return errs.Wrapf(err, errs.CodeConfig, "rule %d (%s)", i+1, r.ID)
		}
		if seen[r.ID] {
			return errs.Newf(errs.CodeConfig, "duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFile
	}

	return nil
}

func (r *RuleConfig) validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("id is required")
	}
	if n := r.Match.count(); n != 1 {
		return errors.Errorf("match must set exactly one of literal, structured or regex (got %d)", n)
	}
	for i, fb := range r.Fallbacks {
		if n := fb.count(); n != 1 {
			return errors.Errorf("fallback %d must set exactly one of literal, structured or regex (got %d)", i+1, n)
		}
	}
	if r.Marker != nil && r.Marker.count() != 1 {
		return errors.Errorf("marker must set exactly one of literal, structured or regex (got %d)", r.Marker.count())
	}
	if r.Action == "" {
		r.Action = string(patch.ActionReplace)
	}
	r.Action = strings.ToLower(r.Action)
	switch patch.Action(r.Action) {
	case patch.ActionReplace, patch.ActionInsertBefore, patch.ActionInsertAfter, patch.ActionDelete:
	case patch.ActionCheck:
		if r.Text != "" || r.Marker != nil || len(r.Fallbacks) > 0 {
			return errors.New("check takes only a match")
		}
	default:
		return errors.Errorf("unknown action %q", r.Action)
	}
	return nil
}

// Location returns the absolute path the config was loaded from.
func (cfg *Config) Location() string {
	return cfg.location
}

// Dir returns the directory targets and the state file are relative to.
func (cfg *Config) Dir() string {
	if cfg.location == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}
	return filepath.Dir(cfg.location)
}

// StatePath returns the absolute path of the state lock.
func (cfg *Config) StatePath() string {
	name := cfg.StateFile
	if name == "" {
		name = DefaultStateFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cfg.Dir(), name)
}

// BackupEnabled reports whether targets are backed up before writing.
// Backups are on unless the config turns them off.
func (cfg *Config) BackupEnabled() bool {
	return cfg.Backup == nil || *cfg.Backup
}

// SaveOptions returns the document options for writing targets.
func (cfg *Config) SaveOptions() document.SaveOptions {
	le, _ := document.ParseLineEnding(cfg.LineEnding)
	return document.SaveOptions{LineEnding: le}
}

// Hash returns a checksum of the decoded configuration. Two configs that
// decode to the same rules and targets hash the same regardless of format.
func (cfg *Config) Hash() string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	return document.Checksum(data)
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%d rules -> %s", len(cfg.Rules), strings.Join(cfg.Targets, ", "))
}
