// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package reqfile

import (
	"strings"
)

// String spells the requirement line canonically: the dependency per
// pep508.Dependency.String(), then any --hash options, then the end-of-line
// comment with exactly two spaces before the "#" and one after it.
func (req Requirement) String() string {
	var ret strings.Builder
	ret.WriteString(req.Dependency.String())
	for _, h := range req.HashOpts {
		ret.WriteString(" --hash=")
		ret.WriteString(h.String())
	}
	if req.Comment != "" {
		ret.WriteString("  # ")
		ret.WriteString(req.Comment)
	}
	return ret.String()
}

// Canonicalize returns a copy of the file rewritten to the house style.
// The requirement set, the comments, and the disabled lines all survive;
// only spelling and whitespace change:
//
//   - requirement lines are re-spelled per Requirement.String (normalized
//     version text, no space before the constraint, "  # " comments),
//   - disabled requirements are re-spelled the same way after the "# ",
//   - category headers, prose comments, and option lines are untouched,
//   - trailing whitespace and trailing blank lines are dropped, and a
//     continued line is joined onto one.
//
// Lines that did not parse are left alone, except for trailing whitespace.
func Canonicalize(f *File) *File {
	lines := make([]Line, len(f.Lines))
	copy(lines, f.Lines)
	for i := range lines {
		line := &lines[i]
		if line.Requirement != nil {
			req := *line.Requirement
			line.Requirement = &req
		}
		if line.Option != nil {
			opt := *line.Option
			line.Option = &opt
		}
		switch {
		case line.Kind == KindRequirement && line.Err == nil:
			line.Raw = line.Requirement.String()
		case line.Kind == KindDisabled && line.Requirement != nil:
			line.Raw = "# " + line.Requirement.String()
		default:
			line.Raw = strings.TrimRight(line.Raw, " \t")
		}
	}
	for len(lines) > 0 && lines[len(lines)-1].Kind == KindBlank {
		lines = lines[:len(lines)-1]
	}
	return &File{
		Name:  f.Name,
		Lines: lines,
	}
}
