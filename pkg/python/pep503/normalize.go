// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep503 implements PEP 503 -- Simple Repository API.
//
// https://www.python.org/dev/peps/pep-0503/
package pep503

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

//nolint:gochecknoglobals // Would be 'const'.
var reNameSeparators = regexp.MustCompile("[-_.]+")

// NormalizeName normalizes a project name for comparison and for use in /simple/ URLs; it is the
// same normalization as `pip/_vendor/packaging/utils.py:canonicalize_name()`.
//
// Project names are compared after normalization: "Django", "django", and "DJANGO" name the same
// project, as do "oslo.utils", "oslo-utils", and "oslo_utils".
func NormalizeName(name string) string {
	return strings.ToLower(reNameSeparators.ReplaceAllLiteralString(name, "-"))
}

// ValidateName checks a project name against PEP 503's "the only valid characters in a name are
// the ASCII alphabet, ASCII numbers, `.`, `-`, and `_`".
func ValidateName(name string) error {
	if name == "" {
		return errors.New("empty project name")
	}
	for _, char := range name {
		if !(('a' <= char && char <= 'z') ||
			('A' <= char && char <= 'Z') ||
			('0' <= char && char <= '9') ||
			char == '.' ||
			char == '-' ||
			char == '_') {
			return fmt.Errorf("illegal character in project name: %q: %s",
				name, strconv.QuoteRuneToASCII(char))
		}
	}
	return nil
}
