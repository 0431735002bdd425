// Package bdist implements the file-naming parts of the PyPA Binary distribution format (AKA PEP
// 427 -- The Wheel Binary Package Format 1.0).
//
// https://www.python.org/dev/peps/pep-0427/
// https://packaging.python.org/specifications/binary-distribution-format/
//
// Other useful references:
//  - site-packages/pip/_internal/models/wheel.py
package bdist
