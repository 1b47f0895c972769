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

// Package errs defines the error kinds patchrc surfaces to operators.
//
// Each kind is a Code. Errors built here compare equal under errors.Is when
// their codes match, so callers test the kind against the exported sentinels:
//
//	if errors.Is(err, errs.ReadError) { ... }
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code identifies an error kind.
type Code string

const (
	CodeRead           Code = "READ"
	CodeWrite          Code = "WRITE"
	CodePatternConfig  Code = "PATTERN_CONFIG"
	CodeConfig         Code = "CONFIG"
	CodePersistentMiss Code = "PERSISTENT_MISS"
)

// Sentinels for errors.Is.
var (
	ReadError                 = &Error{Code: CodeRead, Message: "read error"}
	WriteError                = &Error{Code: CodeWrite, Message: "write error"}
	PatternConfigurationError = &Error{Code: CodePatternConfig, Message: "pattern configuration error"}
	ConfigError               = &Error{Code: CodeConfig, Message: "config error"}
	PersistentMissError       = &Error{Code: CodePersistentMiss, Message: "persistent no-match"}
)

// 🚨 Error is a coded error with optional details and a wrapped cause.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Wrapped error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.Wrapped)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetail attaches a key/value pair shown in the message.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with a kind. It returns nil when err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Wrapped: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
