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

package log

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 ChangeType is what happened to a file outside the rule pipeline
type ChangeType int

const (
	ChangePatched ChangeType = iota
	ChangeUnchanged
	ChangeBackedUp
	ChangeRestored
	ChangeRemoved
	ChangeError
)

// 🖼️ FileChange describes a change to a target or sidecar file
type FileChange struct {
	Type        ChangeType
	Path        string
	Description string
	Error       error
}

// 📢 UserLogger provides user-friendly feedback about file changes
type UserLogger struct {
	log zerolog.Logger // for debug/error logging
	out io.Writer
}

// 🎯 NewUserLogger creates a new user logger writing to out
func NewUserLogger(ctx context.Context, out io.Writer) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
		out: out,
	}
}

// 📝 LogFileChange logs a file change with appropriate emoji and formatting
func (u *UserLogger) LogFileChange(change FileChange) {
	relPath := filepath.Base(change.Path)

	var action string
	var printer *pterm.PrefixPrinter
	switch change.Type {
	case ChangePatched:
		action = "Patched"
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"})
	case ChangeUnchanged:
		action = "Unchanged"
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "⏭️"})
	case ChangeBackedUp:
		action = "Backed up"
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "💾"})
	case ChangeRestored:
		action = "Restored"
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔄"})
	case ChangeRemoved:
		action = "Removed"
		printer = pterm.Warning.WithPrefix(pterm.Prefix{Text: "🗑️"})
	default:
		action = "Error"
		printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
	}

	msg := fmt.Sprintf("%s %s", action, relPath)
	if change.Description != "" {
		msg += fmt.Sprintf(" (%s)", change.Description)
	}

	printer.WithWriter(u.out).Println(msg)
	if change.Error != nil {
		pterm.Error.WithWriter(u.out).Println(change.Error)
		u.log.Error().Err(change.Error).Str("path", change.Path).Msg(msg)
		return
	}
	u.log.Debug().Str("path", change.Path).Msg(msg)
}

// 📊 LogStateChange logs a change to the state lock
func (u *UserLogger) LogStateChange(description string) {
	pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"}).WithWriter(u.out).Println(description)
	u.log.Debug().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	switch {
	case valid:
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).WithWriter(u.out).Println(description)
		u.log.Debug().Msg(description)
	case err != nil:
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).WithWriter(u.out).Println(description)
		pterm.Error.WithWriter(u.out).Println(err)
		u.log.Error().Err(err).Msg(description)
	default:
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).WithWriter(u.out).Println(description)
		u.log.Warn().Msg(description)
	}
}
