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
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines shown around a change.
const diffContext = 2

// Diff runs the rules without writing anything and prints a line diff of
// every target that would change. It returns true when any target would.
func (o *operator) Diff(ctx context.Context, w io.Writer) (bool, error) {
	// target reports would interleave with the diff
	quiet := *o
	quiet.logger = silentLogger()

	targets, err := quiet.run(ctx, false)
	if err != nil {
		return false, err
	}

	changed := false
	for _, t := range targets {
		if !t.Changed() {
			continue
		}
		changed = true
		if t.Before == t.After {
			writeHeader(w, o.display(t.Path))
			fmt.Fprintln(w, color.New(color.Faint).Sprintf("line endings: %s -> %s", t.Info.LineEnding, t.opts.LineEnding))
			continue
		}
		writeDiff(w, o.display(t.Path), string(t.Before), string(t.After))
	}
	return changed, nil
}

// writeDiff prints a unified style line diff of before and after.
func writeDiff(w io.Writer, name, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	writeHeader(w, name)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range text {
				fmt.Fprintln(w, removed.Sprint("-"+l))
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range text {
				fmt.Fprintln(w, added.Sprint("+"+l))
			}
		case diffmatchpatch.DiffEqual:
			head, tail := 0, 0
			if i > 0 {
				head = min(diffContext, len(text))
			}
			if i < len(diffs)-1 {
				tail = min(diffContext, len(text))
			}
			if head+tail >= len(text) {
				for _, l := range text {
					fmt.Fprintln(w, " "+l)
				}
				continue
			}
			for _, l := range text[:head] {
				fmt.Fprintln(w, " "+l)
			}
			fmt.Fprintln(w, faint.Sprintf("@@ %d unchanged lines @@", len(text)-head-tail))
			for _, l := range text[len(text)-tail:] {
				fmt.Fprintln(w, " "+l)
			}
		}
	}
}

func writeHeader(w io.Writer, name string) {
	header := color.New(color.Bold)
	fmt.Fprintln(w, header.Sprintf("--- %s", name))
	fmt.Fprintln(w, header.Sprintf("+++ %s", name))
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
