// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package reqfile implements a lossless model of pip requirements files.
//
// https://pip.pypa.io/en/stable/reference/requirements-file-format/
//
// A parsed File remembers every byte of its input: writing an unmodified
// File back out reproduces the input exactly, comments and blank lines and
// line-continuations included.  On top of the raw lines it exposes a parsed
// view (the active requirements, the pip options, the commented-out
// "disabled" requirements) for tools to inspect.
package reqfile

import (
	"github.com/datawire/reqtool/pkg/python/pep503"
	"github.com/datawire/reqtool/pkg/python/pep508"
)

// A File is a parsed requirements file.
type File struct {
	// Name is the filename that the file was parsed from, or "-" for
	// stdin; it is used in error and lint messages.
	Name string

	// Lines are the logical lines of the file, in order.  A logical
	// line may span several physical lines (backslash continuations).
	Lines []Line

	// noFinalNewline records that the input did not end with a newline,
	// so that Write can reproduce it.
	noFinalNewline bool
}

// A LineKind says what a logical line is.
type LineKind int

const (
	// KindBlank is an empty or whitespace-only line.
	KindBlank LineKind = iota

	// KindComment is a "#" line that is not a disabled requirement:
	// a category header, prose instructions, and the like.
	KindComment

	// KindDisabled is a "#" line whose commented-out text is a
	// requirement or an option.  Disabled lines are inert; they never
	// count as active, but carry their parsed content for inspection.
	KindDisabled

	// KindRequirement is an active requirement.
	KindRequirement

	// KindOption is a pip option line ("-r file.txt", "--no-index", ...).
	KindOption
)

func (k LineKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindDisabled:
		return "disabled"
	case KindRequirement:
		return "requirement"
	case KindOption:
		return "option"
	default:
		return "invalid"
	}
}

// A Line is one logical line of a requirements file.
type Line struct {
	// Raw is the original text of the logical line, without the final
	// line terminator.  If the logical line spans several physical
	// lines, Raw contains the embedded "\n"s and the "\"s before them.
	// Raw is authoritative for Write; the parsed fields below are a
	// view of it.
	Raw string

	// Number is the 1-based number of the (first) physical line.
	Number int

	Kind LineKind

	// Requirement is set for KindRequirement, and for KindDisabled
	// lines whose text is a requirement.
	Requirement *Requirement

	// Option is set for KindOption, and for KindDisabled lines whose
	// text is an option.
	Option *Option

	// Err is set if the line should have parsed as a requirement or an
	// option but did not; Kind then says what it looks like, and
	// Requirement/Option are nil.  Parse does not fail on such lines;
	// use File.Err or Lint to surface them.
	Err error
}

// A Requirement is an active (or disabled) requirement line.
type Requirement struct {
	// Dependency is the PEP 508 dependency specification.
	Dependency pep508.Dependency

	// Comment is the text of the end-of-line "#" comment, with
	// surrounding whitespace trimmed; empty if there is none.  The
	// manifests this package grew up around use it to record the
	// version currently in use, as in
	//
	//	numpy>=1.11.0  # 0.13.1
	Comment string

	// HashOpts are the per-requirement "--hash=algo:hexdigest" options,
	// in order.
	HashOpts []Hash
}

// A Hash is one "--hash=algo:hexdigest" option on a requirement line.  Only
// the "algo:hexdigest" shape is checked at parse time; whether the algorithm
// is known and the digest well-formed is Lint's business.
type Hash struct {
	Algo string
	Hex  string
}

func (h Hash) String() string {
	return h.Algo + ":" + h.Hex
}

// An Option is a pip option line.
type Option struct {
	// Flag is the option as written ("-r", "--index-url", ...).
	Flag string

	// Value is the option's argument; empty for options that do not
	// take one.
	Value string
}

// Requirements returns the active requirements, in file order.  Disabled
// lines are not active.
func (f *File) Requirements() []Requirement {
	var ret []Requirement
	for _, line := range f.Lines {
		if line.Kind == KindRequirement && line.Requirement != nil {
			ret = append(ret, *line.Requirement)
		}
	}
	return ret
}

// Find returns pointers to the lines (active or disabled) whose requirement
// name matches the given name, under PEP 503 name normalization.
func (f *File) Find(name string) []*Line {
	norm := pep503.NormalizeName(name)
	var ret []*Line
	for i := range f.Lines {
		line := &f.Lines[i]
		if line.Requirement == nil {
			continue
		}
		if pep503.NormalizeName(line.Requirement.Dependency.Name) == norm {
			ret = append(ret, line)
		}
	}
	return ret
}

// Includes returns the targets of the active "-r" and "-c" option lines, in
// file order.
func (f *File) Includes() []string {
	var ret []string
	for _, line := range f.Lines {
		if line.Kind != KindOption || line.Option == nil {
			continue
		}
		switch line.Option.Flag {
		case "-r", "--requirement", "-c", "--constraint":
			ret = append(ret, line.Option.Value)
		}
	}
	return ret
}

// Err returns the first line's Err, wrapped with file-and-line position, or
// nil if every line parsed.  Tools that do not want to work with partially
// parsed files should check it right after Parse.
func (f *File) Err() error {
	for _, line := range f.Lines {
		if line.Err != nil {
			return &ParseError{
				File:  f.Name,
				Line:  line.Number,
				Input: line.Raw,
				Err:   line.Err,
			}
		}
	}
	return nil
}
