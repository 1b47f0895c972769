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
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/pipeline"
)

// 🎨 Display configuration
const (
	ruleIndent  = 4  // spaces to indent rule entries
	nameWidth   = 30 // Base width for rule id
	statusWidth = 17 // Width for status text
)

// 🎯 RuleOperation is one rule outcome for display
type RuleOperation struct {
	RuleID      string
	Outcome     patch.Outcome
	MatchedBy   int // 0 precondition, k fallback k
	Occurrences int
	DryRun      bool
}

// 📦 TargetOperation is one patched file for display
type TargetOperation struct {
	Path   string // path shown to the user
	DryRun bool
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or a logger that prints
// nothing when none was set
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return New(io.Discard, zerolog.Disabled)
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func outcomeDisplay(o patch.Outcome, dryRun bool) (rune, color.Attribute, string) {
	switch o {
	case patch.OutcomeApplied:
		if dryRun {
			return '⟳', color.FgBlue, "would apply"
		}
		return '✓', color.FgGreen, "applied"
	case patch.OutcomeAlreadyPresent:
		return '•', color.FgCyan, "already present"
	case patch.OutcomeNoMatch:
		return '✗', color.FgYellow, "no match"
	default:
		return '-', color.FgRed, string(o)
	}
}

// 📝 formatRuleOperation formats a rule outcome for display
func (l *Logger) formatRuleOperation(op RuleOperation) string {
	symbol, symbolColor, status := outcomeDisplay(op.Outcome, op.DryRun)

	detail := ""
	if op.Outcome == patch.OutcomeApplied {
		if op.MatchedBy > 0 {
			detail = fmt.Sprintf("fallback %d", op.MatchedBy)
		}
		if op.Occurrences > 1 {
			if detail != "" {
				detail += ", "
			}
			detail += fmt.Sprintf("%d occurrences", op.Occurrences)
		}
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", ruleIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.RuleID),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, status)),
		color.New(color.Faint).Sprint(detail))
}

// 📝 LogTargetReport prints a whole target block (header, one line per rule,
// summary) under one lock, so concurrent targets never interleave
func (l *Logger) LogTargetReport(ctx context.Context, op TargetOperation, report *pipeline.Report) {
	l.mu.Lock()
	defer l.mu.Unlock()

	verb := "patching"
	if op.DryRun {
		verb = "checking"
	}
	fmt.Fprintf(l.console, "[%s %s]\n", verb, color.New(color.FgCyan).Sprint(op.Path))
	for _, e := range report.Entries {
		fmt.Fprintln(l.console, l.formatRuleOperation(RuleOperation{
			RuleID:      e.RuleID,
			Outcome:     e.Outcome,
			MatchedBy:   e.MatchedBy,
			Occurrences: e.Occurrences,
			DryRun:      op.DryRun,
		}))
	}
	summary := report.Summary()
	fmt.Fprintln(l.console, formatSummary(summary))

	l.zlog.Info().
		Str("target", op.Path).
		Int("applied", summary.Applied).
		Int("already_present", summary.AlreadyPresent).
		Int("no_match", summary.NoMatch).
		Bool("dry_run", op.DryRun).
		Msg("target complete")
}

func formatSummary(summary pipeline.Summary) string {
	return fmt.Sprintf("%s %s %s %s",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.FgGreen).Sprintf("%d applied", summary.Applied),
		color.New(color.FgCyan).Sprintf("%d present", summary.AlreadyPresent),
		color.New(color.FgYellow).Sprintf("%d no match", summary.NoMatch))
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("patchrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
