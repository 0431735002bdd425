// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package reqfile

import (
	"bytes"
	"io"

	"github.com/google/renameio/v2"
)

// Write writes the file out.  For a File straight from Parse this
// reproduces the input byte-for-byte; Raw is authoritative.
func (f *File) Write(w io.Writer) error {
	for i := range f.Lines {
		if _, err := io.WriteString(w, f.Lines[i].Raw); err != nil {
			return err
		}
		if i == len(f.Lines)-1 && f.noFinalNewline {
			break
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns what Write would write.
func (f *File) Bytes() []byte {
	var buf bytes.Buffer
	_ = f.Write(&buf) // can't fail on a bytes.Buffer
	return buf.Bytes()
}

func (f *File) String() string {
	return string(f.Bytes())
}

// WriteFile writes the file to the named path, atomically replacing any
// existing file.
func (f *File) WriteFile(filename string) error {
	return renameio.WriteFile(filename, f.Bytes(), 0644)
}
