// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package reqfile

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/datawire/reqtool/pkg/python"
	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pep503"
	"github.com/datawire/reqtool/pkg/python/pep508"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "invalid"
	}
}

// A Problem is one lint finding.
type Problem struct {
	File     string
	Line     int
	Code     string
	Severity Severity
	Msg      string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s:%d: %s: %s: %s", p.File, p.Line, p.Severity, p.Code, p.Msg)
}

// Lint checks a parsed file, returning the problems in line order.
//
// Error-class codes: "invalid-name", "invalid-specifier", "invalid-marker",
// "invalid-option", and "invalid-hash" for lines that do not parse or whose
// hashes are malformed, and "duplicate-package" when two active lines list
// the same (PEP 503 normalized) name.
//
// Warning-class codes: "unpinned" for active requirements with no version
// constraint at all, and "non-minimum" for constraints with no lower bound
// (only "<", "<=", or "!=" clauses).
//
// Info-class codes: "duplicate-disabled" for commented-out requirements
// that duplicate an active one.
func Lint(f *File) []Problem {
	var ret []Problem
	problem := func(line Line, severity Severity, code, format string, args ...interface{}) {
		ret = append(ret, Problem{
			File:     f.Name,
			Line:     line.Number,
			Code:     code,
			Severity: severity,
			Msg:      fmt.Sprintf(format, args...),
		})
	}

	// first active line of each normalized name, for the duplicate checks
	firstActive := make(map[string]int)
	for _, line := range f.Lines {
		if line.Kind == KindRequirement && line.Requirement != nil {
			norm := pep503.NormalizeName(line.Requirement.Dependency.Name)
			if _, seen := firstActive[norm]; !seen {
				firstActive[norm] = line.Number
			}
		}
	}

	for _, line := range f.Lines {
		switch {
		case line.Err != nil:
			problem(line, SeverityError, errCode(line), "%v", line.Err)

		case line.Kind == KindRequirement:
			req := line.Requirement
			norm := pep503.NormalizeName(req.Dependency.Name)
			if first := firstActive[norm]; first != line.Number {
				problem(line, SeverityError, "duplicate-package",
					"package %q is already listed on line %d",
					req.Dependency.Name, first)
			}

			for _, h := range req.HashOpts {
				hasher, err := python.HashlibNew(h.Algo)
				if err != nil {
					problem(line, SeverityError, "invalid-hash", "%v", err)
					continue
				}
				digest, err := hex.DecodeString(h.Hex)
				if err != nil {
					problem(line, SeverityError, "invalid-hash",
						"%s digest is not hexadecimal: %q", h.Algo, h.Hex)
					continue
				}
				if len(digest) != hasher.Size() {
					problem(line, SeverityError, "invalid-hash",
						"%s digest has %d bytes, want %d",
						h.Algo, len(digest), hasher.Size())
				}
			}

			switch {
			case req.Dependency.Specifier == nil && req.Dependency.DirectURL == "":
				problem(line, SeverityWarning, "unpinned",
					"no version constraint on %q", req.Dependency.Name)
			case req.Dependency.Specifier != nil && !hasLowerBound(req.Dependency.Specifier):
				problem(line, SeverityWarning, "non-minimum",
					"constraint %q has no lower bound",
					req.Dependency.Specifier.String())
			}

		case line.Kind == KindDisabled && line.Requirement != nil:
			norm := pep503.NormalizeName(line.Requirement.Dependency.Name)
			if first, active := firstActive[norm]; active {
				problem(line, SeverityInfo, "duplicate-disabled",
					"commented-out %q duplicates the active requirement on line %d",
					line.Requirement.Dependency.Name, first)
			}
		}
	}
	return ret
}

// errCode picks the lint code for a line that did not parse.  Requirement
// parse errors say which part of the PEP 508 grammar failed; the only other
// way a requirement line can fail is a malformed --hash option.
func errCode(line Line) string {
	if line.Kind == KindOption {
		return "invalid-option"
	}
	var depErr *pep508.ParseError
	if errors.As(line.Err, &depErr) {
		switch depErr.Field {
		case "name", "extras":
			return "invalid-name"
		case "marker":
			return "invalid-marker"
		default:
			return "invalid-specifier"
		}
	}
	return "invalid-hash"
}

// hasLowerBound reports whether the specifier constrains versions from
// below.  ">=", ">", "~=", "===", and both "==" forms all do; a specifier
// of only "<"/"<="/"!=" clauses lets arbitrarily old versions match.
func hasLowerBound(spec pep440.Specifier) bool {
	for _, clause := range spec {
		switch clause.CmpOp {
		case pep440.CmpOp_GE, pep440.CmpOp_GT, pep440.CmpOp_Compatible,
			pep440.CmpOp_StrictMatch, pep440.CmpOp_PrefixMatch, pep440.CmpOp_Arbitrary:
			return true
		}
	}
	return false
}
