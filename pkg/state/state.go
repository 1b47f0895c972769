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

// Package state tracks rule outcomes across runs in a .patchrc.lock file.
package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/document"
	"github.com/walteh/patchrc/pkg/errs"
	"github.com/walteh/patchrc/pkg/patch"
	"github.com/walteh/patchrc/pkg/pipeline"
)

const SchemaVersion = "1.0.0"

// LockFile is the on-disk layout of the state lock.
type LockFile struct {
	SchemaVersion string    `json:"schema_version"`
	RunID         string    `json:"run_id"`
	LastRun       time.Time `json:"last_run"`

	// ConfigHash detects whether the rule set changed since the last run
	ConfigHash string `json:"config_hash"`

	// Targets is keyed by slash-separated path relative to the lock file
	Targets map[string]*TargetState `json:"targets"`
}

// TargetState tracks one patched file.
type TargetState struct {
	ContentHash string                `json:"content_hash"`
	LastUpdated time.Time             `json:"last_updated"`
	Rules       map[string]*RuleState `json:"rules"`
}

// RuleState tracks one rule against one target.
type RuleState struct {
	LastOutcome       patch.Outcome `json:"last_outcome"`
	ConsecutiveMisses int           `json:"consecutive_misses"`
	LastApplied       *time.Time    `json:"last_applied,omitempty"`
}

// Escalation is a rule that missed too many runs in a row.
type Escalation struct {
	Target string
	RuleID string
	Misses int
}

// 🔒 State is the in-memory state lock. It is safe for concurrent use.
type State struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	file *LockFile
}

// New returns an empty state bound to path.
func New(path string) *State {
	return &State{
		path: path,
		now:  time.Now,
		file: newLockFile(),
	}
}

func newLockFile() *LockFile {
	return &LockFile{
		SchemaVersion: SchemaVersion,
		Targets:       make(map[string]*TargetState),
	}
}

// Path returns the lock file path.
func (s *State) Path() string {
	return s.path
}

// Load reads the lock file. A missing file leaves the state empty.
func (s *State) Load(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", s.path).Msg("loading state")

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.file = newLockFile()
			return nil
		}
		return errs.Wrapf(err, errs.CodeRead, "reading state %s", s.path)
	}

	file := newLockFile()
	if err := json.Unmarshal(data, file); err != nil {
		return errs.Wrapf(err, errs.CodeRead, "decoding state %s", s.path)
	}
	if file.Targets == nil {
		file.Targets = make(map[string]*TargetState)
	}
	s.file = file
	return nil
}

// Save writes the lock file atomically.
func (s *State) Save(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", s.path).Msg("writing state")

	s.mu.Lock()
	data, err := json.MarshalIndent(s.file, "", "\t")
	s.mu.Unlock()
	if err != nil {
		return errors.Errorf("encoding state: %w", err)
	}

	if err := document.WriteFileAtomic(s.path, append(data, '\n'), 0644); err != nil {
		return errs.Wrapf(err, errs.CodeWrite, "writing state %s", s.path)
	}
	return nil
}

// Remove deletes the lock file. A missing file is not an error.
func (s *State) Remove(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrapf(err, errs.CodeWrite, "removing state %s", s.path)
	}
	zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("removed state")

	s.mu.Lock()
	s.file = newLockFile()
	s.mu.Unlock()
	return nil
}

// Begin starts a new run and returns its id.
func (s *State) Begin(configHash string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.file.RunID = uuid.New().String()
	s.file.LastRun = s.now().UTC()
	s.file.ConfigHash = configHash
	return s.file.RunID
}

// RunID returns the id of the current or last run.
func (s *State) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.RunID
}

// ConfigHash returns the config hash recorded by the last Begin.
func (s *State) ConfigHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.ConfigHash
}

// Key returns the lock key for a target path.
func (s *State) Key(target string) string {
	rel, err := filepath.Rel(filepath.Dir(s.path), target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// Record folds a run report into the target's rule states. A miss increments
// the rule's counter; any other outcome resets it. When threshold > 0, rules
// whose counter reached it are returned in report order.
func (s *State) Record(target string, report *pipeline.Report, contentHash string, threshold int) []Escalation {
	key := s.Key(target)
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.file.Targets[key]
	if !ok {
		ts = &TargetState{Rules: make(map[string]*RuleState)}
		s.file.Targets[key] = ts
	}
	ts.ContentHash = contentHash
	ts.LastUpdated = now

	var out []Escalation
	for _, e := range report.Entries {
		rs, ok := ts.Rules[e.RuleID]
		if !ok {
			rs = &RuleState{}
			ts.Rules[e.RuleID] = rs
		}
		rs.LastOutcome = e.Outcome

		switch e.Outcome {
		case patch.OutcomeNoMatch:
			rs.ConsecutiveMisses++
		case patch.OutcomeApplied:
			applied := now
			rs.LastApplied = &applied
			rs.ConsecutiveMisses = 0
		default:
			rs.ConsecutiveMisses = 0
		}

		if threshold > 0 && rs.ConsecutiveMisses >= threshold {
			out = append(out, Escalation{Target: key, RuleID: e.RuleID, Misses: rs.ConsecutiveMisses})
		}
	}
	return out
}

// Target returns a copy of the recorded state for target.
func (s *State) Target(target string) (TargetState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.file.Targets[s.Key(target)]
	if !ok {
		return TargetState{}, false
	}
	cp := TargetState{
		ContentHash: ts.ContentHash,
		LastUpdated: ts.LastUpdated,
		Rules:       make(map[string]*RuleState, len(ts.Rules)),
	}
	for id, rs := range ts.Rules {
		r := *rs
		cp.Rules[id] = &r
	}
	return cp, true
}

// Misses returns the consecutive miss count of a rule on a target.
func (s *State) Misses(target, ruleID string) int {
	ts, ok := s.Target(target)
	if !ok {
		return 0
	}
	if rs, ok := ts.Rules[ruleID]; ok {
		return rs.ConsecutiveMisses
	}
	return 0
}

// Prune drops targets and rules that are no longer configured.
func (s *State) Prune(targets []string, ruleIDs []string) {
	keepTargets := make(map[string]bool, len(targets))
	for _, t := range targets {
		keepTargets[s.Key(t)] = true
	}
	keepRules := make(map[string]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		keepRules[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, ts := range s.file.Targets {
		if !keepTargets[key] {
			delete(s.file.Targets, key)
			continue
		}
		for id := range ts.Rules {
			if !keepRules[id] {
				delete(ts.Rules, id)
			}
		}
	}
}

// EscalationError turns escalations into a PersistentMissError, or nil.
func EscalationError(escalations []Escalation) error {
	if len(escalations) == 0 {
		return nil
	}
	sorted := append([]Escalation(nil), escalations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Target < sorted[j].Target
	})

	names := make([]string, 0, len(sorted))
	for _, e := range sorted {
		names = append(names, e.Target+":"+e.RuleID)
	}
	return errs.Newf(errs.CodePersistentMiss, "%d rule(s) did not match for too many runs in a row", len(sorted)).
		WithDetail("rules", strings.Join(names, ", "))
}
