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

package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📄 Document is the full text of a target file. In memory every line break
// is "\n"; Load and Save translate to and from the file's convention.
//
// A Document is a string value, so a transform always produces a new value
// and can never change one an earlier step still holds.
type Document string

func (d Document) String() string {
	return string(d)
}

// Len returns the size in bytes.
func (d Document) Len() int {
	return len(d)
}

// LineEnding specifies the line ending style written to disk.
type LineEnding uint8

const (
	LineEndingCRLF LineEnding = iota // Windows: \r\n, the default
	LineEndingLF                     // Unix: \n
	LineEndingCR                     // Old Mac: \r
)

// String returns the config name of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "crlf"
	case LineEndingLF:
		return "lf"
	case LineEndingCR:
		return "cr"
	default:
		return "unknown"
	}
}

// Sequence returns the bytes of the line terminator.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingLF:
		return "\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\r\n"
	}
}

// ParseLineEnding parses a config value. The empty string selects CRLF.
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "crlf", "windows":
		return LineEndingCRLF, nil
	case "lf", "unix":
		return LineEndingLF, nil
	case "cr":
		return LineEndingCR, nil
	default:
		return LineEndingCRLF, errors.Errorf("unknown line ending %q (want crlf, lf or cr)", s)
	}
}

// Normalize converts every line break in s (CRLF, lone CR or LF) to le.
func Normalize(s string, le LineEnding) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if le == LineEndingLF {
		return s
	}
	return strings.ReplaceAll(s, "\n", le.Sequence())
}

// LineEndingCounts tallies the terminators found in raw text.
type LineEndingCounts struct {
	CRLF int
	LF   int
	CR   int
}

// CountLineEndings counts each kind of terminator in s.
func CountLineEndings(s string) LineEndingCounts {
	var c LineEndingCounts
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				c.CRLF++
				i++
			} else {
				c.CR++
			}
		case '\n':
			c.LF++
		}
	}
	return c
}

// Dominant returns the most frequent terminator, CRLF on ties or when the
// text has no line breaks.
func (c LineEndingCounts) Dominant() LineEnding {
	switch {
	case c.LF > c.CRLF && c.LF >= c.CR:
		return LineEndingLF
	case c.CR > c.CRLF && c.CR > c.LF:
		return LineEndingCR
	default:
		return LineEndingCRLF
	}
}

// Mixed reports whether more than one kind of terminator is present.
func (c LineEndingCounts) Mixed() bool {
	kinds := 0
	for _, n := range []int{c.CRLF, c.LF, c.CR} {
		if n > 0 {
			kinds++
		}
	}
	return kinds > 1
}

// Checksum returns the hex SHA-256 of content.
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
