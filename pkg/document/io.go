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
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/errs"
)

const utf8BOM = "\xef\xbb\xbf"

// 🗂️ Info describes the file a Document was loaded from.
type Info struct {
	Path       string
	Mode       os.FileMode
	Size       int64
	Checksum   string // SHA-256 of the raw bytes on disk
	BOM        bool
	LineEnding LineEnding // dominant terminator on disk
	Mixed      bool       // more than one terminator kind on disk
}

// SaveOptions controls how a Document is encoded on disk.
type SaveOptions struct {
	LineEnding LineEnding  // zero value is CRLF
	BOM        bool        // write a UTF-8 byte order mark
	Mode       os.FileMode // zero keeps the existing mode, or 0644
}

// 📥 Load reads the whole file at path as UTF-8 text. A leading byte order
// mark is dropped and recorded in Info; line breaks become "\n".
//
// Failures are ReadErrors: the file is missing or unreadable, or its content
// is not valid UTF-8.
func Load(ctx context.Context, path string) (Document, *Info, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading document")

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errs.Wrapf(err, errs.CodeRead, "reading %s", path)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return "", nil, errs.Wrapf(err, errs.CodeRead, "stat %s", path)
	}

	info := &Info{
		Path:     path,
		Mode:     stat.Mode().Perm(),
		Size:     int64(len(raw)),
		Checksum: Checksum(raw),
	}

	text := raw
	if bytes.HasPrefix(text, []byte(utf8BOM)) {
		info.BOM = true
		text = text[len(utf8BOM):]
	}

	if !utf8.Valid(text) {
		return "", nil, errs.Newf(errs.CodeRead, "decoding %s: content is not valid UTF-8", path).
			WithDetail("offset", firstInvalid(text))
	}

	counts := CountLineEndings(string(text))
	info.LineEnding = counts.Dominant()
	info.Mixed = counts.Mixed()

	logger.Debug().
		Str("path", path).
		Int64("size", info.Size).
		Stringer("line_ending", info.LineEnding).
		Bool("mixed", info.Mixed).
		Bool("bom", info.BOM).
		Msg("document loaded")

	return Document(Normalize(string(text), LineEndingLF)), info, nil
}

// Encode returns the bytes Save would write for doc.
func Encode(doc Document, opts SaveOptions) []byte {
	body := Normalize(string(doc), opts.LineEnding)
	if opts.BOM {
		return []byte(utf8BOM + body)
	}
	return []byte(body)
}

// 💾 Save replaces the file at path with doc, encoded per opts. The content
// goes to a temporary file in the same directory first, is synced, then
// renamed over path, so a failure never leaves a truncated target. Failures
// are WriteErrors.
func Save(ctx context.Context, path string, doc Document, opts SaveOptions) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrapf(err, errs.CodeWrite, "saving %s", path)
	}

	mode := opts.Mode
	if mode == 0 {
		mode = 0644
		if stat, err := os.Stat(path); err == nil {
			mode = stat.Mode().Perm()
		}
	}

	data := Encode(doc, opts)
	if err := WriteFileAtomic(path, data, mode); err != nil {
		return errs.Wrapf(err, errs.CodeWrite, "writing %s", path)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Int("size", len(data)).
		Stringer("line_ending", opts.LineEnding).
		Msg("document saved")
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path, fsyncs it and
// renames it over path. The temporary file is removed on any failure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	cleanup := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if _, err := f.Write(data); err != nil {
		return cleanup(err)
	}
	if err := f.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := f.Sync(); err != nil {
		return cleanup(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// BackupPath returns where Backup keeps the copy of path.
func BackupPath(path string) string {
	return path + ".bak"
}

// 🛟 Backup copies path to BackupPath(path), replacing an older backup.
// A missing file is not an error; there is nothing to back up.
func Backup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errs.Wrapf(err, errs.CodeRead, "checking %s", path)
	}

	if err := copyFile(path, BackupPath(path)); err != nil {
		return errs.Wrapf(err, errs.CodeWrite, "backing up %s", path)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("backup", BackupPath(path)).Msg("backup created")
	return nil
}

// Restore puts the backup of path back in place and removes the backup.
func Restore(ctx context.Context, path string) error {
	backup := BackupPath(path)
	if _, err := os.Stat(backup); os.IsNotExist(err) {
		return errs.Newf(errs.CodeRead, "no backup for %s", path)
	} else if err != nil {
		return errs.Wrapf(err, errs.CodeRead, "checking backup of %s", path)
	}

	data, err := os.ReadFile(backup)
	if err != nil {
		return errs.Wrapf(err, errs.CodeRead, "reading backup of %s", path)
	}

	mode := os.FileMode(0644)
	if stat, err := os.Stat(backup); err == nil {
		mode = stat.Mode().Perm()
	}

	if err := WriteFileAtomic(path, data, mode); err != nil {
		return errs.Wrapf(err, errs.CodeWrite, "restoring %s", path)
	}
	if err := os.Remove(backup); err != nil {
		return errs.Wrapf(err, errs.CodeWrite, "removing backup of %s", path)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("backup restored")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, in); err != nil {
		return err
	}
	return WriteFileAtomic(dst, buf.Bytes(), stat.Mode().Perm())
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
