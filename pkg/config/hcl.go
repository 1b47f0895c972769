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
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

type hclPattern struct {
	Literal    *string `hcl:"literal,optional"`
	Structured *string `hcl:"structured,optional"`
	Regex      *string `hcl:"regex,optional"`
}

func (h hclPattern) model() PatternConfig {
	return PatternConfig{Literal: h.Literal, Structured: h.Structured, Regex: h.Regex}
}

type hclRule struct {
	ID          string       `hcl:"id,label"`
	Description string       `hcl:"description,optional"`
	Action      string       `hcl:"action,optional"`
	Text        string       `hcl:"text,optional"`
	All         bool         `hcl:"all,optional"`
	Match       hclPattern   `hcl:"match,block"`
	Fallbacks   []hclPattern `hcl:"fallback,block"`
	Marker      *hclPattern  `hcl:"marker,block"`
}

type hclConfig struct {
	Targets              []string  `hcl:"targets"`
	LineEnding           string    `hcl:"line_ending,optional"`
	Backup               *bool     `hcl:"backup,optional"`
	MaxConsecutiveMisses int       `hcl:"max_consecutive_misses,optional"`
	Async                bool      `hcl:"async,optional"`
	StateFile            string    `hcl:"state_file,optional"`
	Rules                []hclRule `hcl:"rule,block"`
}

// 📝 Parse parses the config from HCL. Literal "${" and "%{" sequences in
// rule text must be written as "$${" and "%%{".
func (p *HCLParser) Parse(ctx context.Context, filename string, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filepath.Base(filename))
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// ${crlf} becomes LF when rules are built
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"crlf": cty.StringVal("\r\n"),
			"lf":   cty.StringVal("\n"),
		},
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Targets:              hclCfg.Targets,
		LineEnding:           hclCfg.LineEnding,
		Backup:               hclCfg.Backup,
		MaxConsecutiveMisses: hclCfg.MaxConsecutiveMisses,
		Async:                hclCfg.Async,
		StateFile:            hclCfg.StateFile,
	}

	for _, r := range hclCfg.Rules {
		rc := RuleConfig{
			ID:          r.ID,
			Description: r.Description,
			Match:       r.Match.model(),
			Action:      r.Action,
			Text:        r.Text,
			All:         r.All,
		}
		for _, fb := range r.Fallbacks {
			rc.Fallbacks = append(rc.Fallbacks, fb.model())
		}
		if r.Marker != nil {
			m := r.Marker.model()
			rc.Marker = &m
		}
		cfg.Rules = append(cfg.Rules, rc)
	}

	return cfg, nil
}
