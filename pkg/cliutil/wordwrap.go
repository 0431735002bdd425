package cliutil

import (
	"strings"
	"unicode"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

func wrap(indent, width int, str string) string {
	if width == 0 {
		return str
	}
	limit := width - 5

	// Split in to words, keeping track of the whitespace between them, so that things like
	// two-space sentence separators survive re-flowing.
	type word struct {
		text string
		gap  string // whitespace between this word and the previous one
	}
	var words []word
	gap := ""
	for rest := strings.TrimSpace(str); rest != ""; {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			words = append(words, word{text: rest, gap: gap})
			break
		}
		words = append(words, word{text: rest[:end], gap: gap})
		rest = rest[end:]
		gapEnd := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsSpace(r) })
		gap = rest[:gapEnd]
		rest = rest[gapEnd:]
	}

	indentStr := strings.Repeat(" ", indent)

	var ret strings.Builder
	col := indent // the caller has already written the indentation for the first line
	for i, w := range words {
		switch {
		case i == 0:
			// nothing; the first word always goes on the first line
		case col+len(w.gap)+len(w.text) >= limit:
			ret.WriteString("\n")
			ret.WriteString(indentStr)
			col = indent
		default:
			ret.WriteString(w.gap)
			col += len(w.gap)
		}
		ret.WriteString(w.text)
		col += len(w.text)
	}
	return ret.String()
}
