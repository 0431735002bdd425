// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package reqfile

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/datawire/reqtool/pkg/python/pep508"
)

// A ParseError says where in a requirements file a malformed line is.
type ParseError struct {
	File  string
	Line  int
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile parses the named requirements file.
func ParseFile(filename string) (*File, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = fp.Close()
	}()
	return Parse(filename, fp)
}

// Parse parses a requirements file.  The name is only used for error and
// lint messages; use "-" for stdin.
//
// Parse itself fails only on read errors.  Lines that should have parsed as
// a requirement or an option but did not are still returned, with the
// problem recorded in their Err field; see File.Err and Lint.
func Parse(name string, r io.Reader) (*File, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	ret := &File{Name: name}
	text := string(input)
	if text == "" {
		return ret, nil
	}
	if strings.HasSuffix(text, "\n") {
		text = text[:len(text)-1]
	} else {
		ret.noFinalNewline = true
	}

	physicals := strings.Split(text, "\n")
	for i := 0; i < len(physicals); i++ {
		number := i + 1
		raw := physicals[i]
		content := chomp(physicals[i])
		// A trailing backslash joins the next physical line into this
		// logical line.  Comment lines never continue; a comment line
		// joined into a continuation ends it (and stays a comment,
		// which is why the space goes in).
		for strings.HasSuffix(content, `\`) && !isFullComment(content) && i+1 < len(physicals) {
			i++
			raw += "\n" + physicals[i]
			next := chomp(physicals[i])
			content = content[:len(content)-1]
			if isFullComment(next) {
				content += " " + next
				break
			}
			content += next
		}
		// a backslash on the file's last line continues nothing
		content = strings.TrimSuffix(content, `\`)

		ret.Lines = append(ret.Lines, parseLine(raw, content, number))
	}
	return ret, nil
}

// chomp drops a trailing carriage return, so that CRLF input parses the same
// as LF input.  Line.Raw keeps the "\r"; only the parsed view loses it.
func chomp(str string) string {
	return strings.TrimSuffix(str, "\r")
}

func isFullComment(str string) bool {
	return strings.HasPrefix(strings.TrimLeft(str, " \t"), "#")
}

// commentStart returns the index of the "#" that starts the line's comment,
// or -1 if there is none.  Like pip, a "#" starts a comment only at the
// start of the line or after whitespace, so that URL fragments
// ("...#egg=name") pass through.
func commentStart(str string) int {
	for i := 0; i < len(str); i++ {
		if str[i] != '#' {
			continue
		}
		if i == 0 {
			return 0
		}
		switch str[i-1] {
		case ' ', '\t':
			return i
		}
	}
	return -1
}

// reEnvVar matches the environment-variable interpolations that pip
// recognizes: only the braced form, only POSIX-flavored uppercase names.
//
//nolint:gochecknoglobals // Would be 'const'.
var reEnvVar = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// expandEnv interpolates ${VAR} environment variable references.  Unset
// variables are left verbatim, like pip leaves them.
func expandEnv(str string) string {
	return reEnvVar.ReplaceAllStringFunc(str, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

func parseLine(raw, content string, number int) Line {
	line := Line{
		Raw:    raw,
		Number: number,
	}

	stripped := strings.TrimSpace(content)
	switch {
	case stripped == "":
		line.Kind = KindBlank
	case strings.HasPrefix(stripped, "#"):
		line.Kind = KindComment
		if req, opt := parseDisabled(stripped); req != nil || opt != nil {
			line.Kind = KindDisabled
			line.Requirement = req
			line.Option = opt
		}
	default:
		var comment string
		if i := commentStart(content); i >= 0 {
			comment = strings.TrimSpace(content[i+1:])
			content = content[:i]
		}
		active := expandEnv(strings.TrimSpace(content))
		if strings.HasPrefix(active, "-") {
			line.Kind = KindOption
			opt, err := parseOption(active)
			if err != nil {
				line.Err = err
			}
			line.Option = opt
		} else {
			line.Kind = KindRequirement
			req, err := parseRequirement(active, comment)
			if err != nil {
				line.Err = err
			}
			line.Requirement = req
		}
	}
	return line
}

// parseDisabled decides whether a full-line comment is a commented-out
// requirement or option line.
//
// Any single word is a syntactically valid PEP 508 dependency, so a bare
// name is not enough; otherwise every "# misc"-style category header would
// count.  The text must carry some requirement syntax beyond a name (a
// version constraint, extras, a URL, a marker, or a --hash option), or
// parse as an option line.
func parseDisabled(stripped string) (*Requirement, *Option) {
	text := strings.TrimSpace(strings.TrimPrefix(stripped, "#"))
	if text == "" || strings.HasPrefix(text, "#") {
		return nil, nil
	}
	var comment string
	if i := commentStart(text); i >= 0 {
		comment = strings.TrimSpace(text[i+1:])
		text = strings.TrimSpace(text[:i])
	}
	if text == "" {
		return nil, nil
	}
	if strings.HasPrefix(text, "-") {
		opt, err := parseOption(text)
		if err != nil {
			return nil, nil
		}
		return nil, opt
	}
	req, err := parseRequirement(text, comment)
	if err != nil {
		return nil, nil
	}
	dep := req.Dependency
	bareName := dep.Specifier == nil && dep.DirectURL == "" && dep.Marker == nil &&
		len(dep.Extras) == 0 && len(req.HashOpts) == 0
	if bareName {
		return nil, nil
	}
	return req, nil
}

func parseRequirement(str, comment string) (*Requirement, error) {
	depText := str
	var optText string
	for i := 1; i+len("--hash") <= len(str); i++ {
		if strings.HasPrefix(str[i:], "--hash") && (str[i-1] == ' ' || str[i-1] == '\t') {
			depText, optText = str[:i], str[i:]
			break
		}
	}

	var hashes []Hash
	toks := strings.Fields(optText)
	for i := 0; i < len(toks); i++ {
		var val string
		switch {
		case toks[i] == "--hash":
			i++
			if i >= len(toks) {
				return nil, fmt.Errorf("option --hash requires a value")
			}
			val = toks[i]
		case strings.HasPrefix(toks[i], "--hash="):
			val = toks[i][len("--hash="):]
		default:
			return nil, fmt.Errorf("unexpected text after --hash options: %q", toks[i])
		}
		colon := strings.IndexByte(val, ':')
		if colon < 1 || colon == len(val)-1 {
			return nil, fmt.Errorf("--hash values take the form %q, not %q",
				"algorithm:hexdigest", val)
		}
		hashes = append(hashes, Hash{Algo: val[:colon], Hex: val[colon+1:]})
	}

	dep, err := pep508.ParseDependency(strings.TrimSpace(depText))
	if err != nil {
		return nil, err
	}
	return &Requirement{
		Dependency: *dep,
		Comment:    comment,
		HashOpts:   hashes,
	}, nil
}

// reqFileOptions are the pip options that may appear in a requirements
// file, and whether each takes a value.
//
//nolint:gochecknoglobals // Would be 'const'.
var reqFileOptions = map[string]bool{
	"-r": true, "--requirement": true,
	"-c": true, "--constraint": true,
	"-e": true, "--editable": true,
	"-i": true, "--index-url": true,
	"--extra-index-url": true,
	"--no-index":        false,
	"-f": true, "--find-links": true,
	"--no-binary": true, "--only-binary": true,
	"--prefer-binary":  false,
	"--require-hashes": false,
	"--pre":            false,
	"--trusted-host":   true,
	"--use-feature":    true,
}

func parseOption(str string) (*Option, error) {
	flag := str
	value := ""
	switch i := strings.IndexAny(str, " \t="); {
	case i >= 0:
		flag = str[:i]
		value = strings.TrimSpace(strings.TrimLeft(str[i:], " \t="))
	case !strings.HasPrefix(str, "--") && len(str) > 2:
		// glued short-option form, "-rdev.txt"
		flag = str[:2]
		value = str[2:]
	}
	takesValue, known := reqFileOptions[flag]
	if !known {
		return nil, fmt.Errorf("unsupported requirements-file option: %q", flag)
	}
	if takesValue && value == "" {
		return nil, fmt.Errorf("option %s requires a value", flag)
	}
	if !takesValue && value != "" {
		return nil, fmt.Errorf("option %s does not take a value: %q", flag, value)
	}
	return &Option{Flag: flag, Value: value}, nil
}
