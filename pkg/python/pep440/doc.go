// Package pep440 implements PEP 440 -- Version Identification and Dependency Specification.
//
// It covers the two halves of that spec that a requirements file is written
// against: version identifiers (parsing, normalization, and the total
// ordering) and version specifiers (the `~=`, `==`, `!=`, `<=`, `>=`, `<`,
// `>`, and `===` clauses).
//
// https://www.python.org/dev/peps/pep-0440/
package pep440
