// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep508 implements PEP 508 -- Dependency specification for Python Software Packages.
//
// https://www.python.org/dev/peps/pep-0508/
package pep508

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pep503"
)

// Dependency is one parsed dependency specification, such as
//
//	requests[security,socks] >= 2.8.1, != 2.8.2 ; python_version > "3.6"
//
// Either Specifier or DirectURL may be set, not both; the grammar has no way to spell a
// version-constrained URL.
type Dependency struct {
	Name      string
	Extras    []string         // nil if no extras
	Specifier pep440.Specifier // nil if no version constraints
	DirectURL string           // the `name @ url` form
	Marker    *Marker          // nil if no environment marker
}

// ParseError says which part of a dependency specification could not be parsed; the Field names
// one of "name", "extras", "url", "specifier", or "marker".
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pep508.ParseDependency: %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// https://www.python.org/dev/peps/pep-0508/#names
//
//nolint:gochecknoglobals // Would be 'const'.
var reName = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)

//nolint:gochecknoglobals // Would be 'const'.
var reExtra = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ParseDependency parses a PEP 508 dependency specification.
func ParseDependency(str string) (*Dependency, error) {
	var ret Dependency

	// name
	rest := strings.TrimSpace(str)
	name := reName.FindString(rest)
	if name == "" {
		return nil, &ParseError{Field: "name", Err: fmt.Errorf("no project name: %q", str)}
	}
	ret.Name = name
	rest = strings.TrimLeft(rest[len(name):], " \t")

	// extras
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return nil, &ParseError{Field: "extras", Err: fmt.Errorf("unterminated extras list: %q", str)}
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" && len(ret.Extras) == 0 && strings.TrimSpace(rest[1:end]) == "" {
				break // `name[]` is permitted and means no extras
			}
			if !reExtra.MatchString(extra) {
				return nil, &ParseError{Field: "extras", Err: fmt.Errorf("invalid extra name: %q", extra)}
			}
			ret.Extras = append(ret.Extras, extra)
		}
		rest = strings.TrimLeft(rest[end+1:], " \t")
	}

	// direct URL
	if strings.HasPrefix(rest, "@") {
		rest = strings.TrimLeft(rest[1:], " \t")
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		ret.DirectURL = rest[:end]
		if ret.DirectURL == "" {
			return nil, &ParseError{Field: "url", Err: fmt.Errorf("empty URL: %q", str)}
		}
		rest = strings.TrimLeft(rest[end:], " \t")
	} else {
		// version specifier, optionally parenthesized
		specStr := rest
		if semi := strings.Index(rest, ";"); semi >= 0 {
			specStr = rest[:semi]
			rest = rest[semi:]
		} else {
			rest = ""
		}
		specStr = strings.TrimSpace(specStr)
		if strings.HasPrefix(specStr, "(") && strings.HasSuffix(specStr, ")") {
			specStr = specStr[1 : len(specStr)-1]
		}
		if specStr != "" {
			spec, err := pep440.ParseSpecifier(specStr)
			if err != nil {
				return nil, &ParseError{Field: "specifier", Err: err}
			}
			ret.Specifier = spec
		}
	}

	// environment marker
	if strings.HasPrefix(rest, ";") {
		markerStr := strings.TrimSpace(rest[1:])
		if markerStr == "" {
			return nil, &ParseError{Field: "marker", Err: fmt.Errorf("empty marker after %q", ";")}
		}
		marker, err := ParseMarker(markerStr)
		if err != nil {
			return nil, &ParseError{Field: "marker", Err: err}
		}
		ret.Marker = marker
	} else if rest != "" {
		// only reachable in the URL form; in the specifier form everything up to any ";"
		// already went to the specifier
		return nil, &ParseError{Field: "url", Err: fmt.Errorf("trailing junk after URL: %q", rest)}
	}

	return &ret, nil
}

// String returns the dependency in canonical spelling: no space before the version constraints,
// extras as-given, and a "; " before any marker.
func (d Dependency) String() string {
	var ret strings.Builder
	ret.WriteString(d.Name)
	if len(d.Extras) > 0 {
		ret.WriteString("[")
		ret.WriteString(strings.Join(d.Extras, ","))
		ret.WriteString("]")
	}
	switch {
	case d.DirectURL != "":
		ret.WriteString(" @ ")
		ret.WriteString(d.DirectURL)
	case d.Specifier != nil:
		ret.WriteString(d.Specifier.String())
	}
	if d.Marker != nil {
		ret.WriteString(" ; ")
		ret.WriteString(d.Marker.String())
	}
	return ret.String()
}

// SortedExtras returns the extras list normalized the way PEP 685 compares extras: the same
// normalization as project names, de-duplicated, and sorted.
func (d Dependency) SortedExtras() []string {
	if len(d.Extras) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(d.Extras))
	ret := make([]string, 0, len(d.Extras))
	for _, extra := range d.Extras {
		norm := pep503.NormalizeName(extra)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		ret = append(ret, norm)
	}
	sort.Strings(ret)
	return ret
}
