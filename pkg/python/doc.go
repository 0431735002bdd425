// Package python contains utilities for mimicking bits of the Python standard library that the
// various packaging PEPs lean on.
package python
