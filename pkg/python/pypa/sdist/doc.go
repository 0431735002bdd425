// Package sdist implements the file-naming parts of the PyPA Source distribution format.
//
// https://packaging.python.org/specifications/source-distribution-format/
//
// The naming convention was only standardized (as ``{distribution}-{version}.tar.gz``) long after
// sdists were in wide use, so parsing has to put up with names that no current tool would produce.
package sdist
