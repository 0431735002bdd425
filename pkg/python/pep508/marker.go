// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep508

import (
	"fmt"
	"strings"

	"github.com/datawire/reqtool/pkg/python/pep440"
)

// Marker is a parsed environment marker, such as
//
//	python_version >= "3.6" and (os_name != "nt" or extra == "win")
//
// https://www.python.org/dev/peps/pep-0508/#environment-markers
type Marker struct {
	expr markerNode
}

func (m Marker) String() string {
	return m.expr.String()
}

// Eval evaluates the marker against an environment shaped like PEP 508's "Environment Markers"
// table.  Referencing a variable that is missing from env is an error; in particular, env must
// contain "extra" (possibly as the empty string) if the marker mentions it.
func (m Marker) Eval(env map[string]string) (bool, error) {
	return m.expr.eval(env)
}

type markerNode interface {
	fmt.Stringer
	eval(env map[string]string) (bool, error)
}

type orNode struct{ lhs, rhs markerNode }

func (n orNode) String() string {
	return n.lhs.String() + " or " + n.rhs.String()
}

func (n orNode) eval(env map[string]string) (bool, error) {
	lhs, err := n.lhs.eval(env)
	if err != nil {
		return false, err
	}
	if lhs {
		// short-circuit, like Python's `or`
		return true, nil
	}
	return n.rhs.eval(env)
}

type andNode struct{ lhs, rhs markerNode }

func (n andNode) String() string {
	return parenthesize(n.lhs) + " and " + parenthesize(n.rhs)
}

// parenthesize wraps `or` nodes so that re-parsing the String() output rebuilds the same tree.
func parenthesize(n markerNode) string {
	if _, isOr := n.(orNode); isOr {
		return "(" + n.String() + ")"
	}
	return n.String()
}

func (n andNode) eval(env map[string]string) (bool, error) {
	lhs, err := n.lhs.eval(env)
	if err != nil {
		return false, err
	}
	if !lhs {
		// short-circuit, like Python's `and`
		return false, nil
	}
	return n.rhs.eval(env)
}

type markerValue struct {
	isLiteral bool
	text      string
}

func (v markerValue) String() string {
	if !v.isLiteral {
		return v.text
	}
	if strings.Contains(v.text, `"`) {
		return "'" + v.text + "'"
	}
	return `"` + v.text + `"`
}

func (v markerValue) get(env map[string]string) (string, error) {
	if v.isLiteral {
		return v.text, nil
	}
	val, ok := env[v.text]
	if !ok {
		return "", fmt.Errorf("undefined environment variable in marker: %q", v.text)
	}
	return val, nil
}

type cmpNode struct {
	lhs markerValue
	op  string
	rhs markerValue
}

func (n cmpNode) String() string {
	return n.lhs.String() + " " + n.op + " " + n.rhs.String()
}

func (n cmpNode) eval(env map[string]string) (bool, error) {
	lhs, err := n.lhs.get(env)
	if err != nil {
		return false, err
	}
	rhs, err := n.rhs.get(env)
	if err != nil {
		return false, err
	}

	switch n.op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	}

	// Compare with PEP 440 semantics when both sides cooperate ("2.7.10" >= "2.7.9"), and like
	// Python strings when they don't ("linux2" < "openbsd5").
	if lhsVer, err := pep440.ParseVersion(lhs); err == nil {
		if clause, err := pep440.ParseSpecifier(n.op + rhs); err == nil {
			return clause.Match(*lhsVer), nil
		}
	}
	switch n.op {
	case "==":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	default:
		// "~=" and "===" have no meaning for non-version operands
		return false, fmt.Errorf("undefined comparison %s %s %s", n.lhs, n.op, n.rhs)
	}
}

// The variables that PEP 508 defines, plus the deprecated spellings that setuptools accepted
// before PEP 508; the deprecated spellings normalize to the modern ones at parse time.
//
//nolint:gochecknoglobals // Would be 'const'.
var markerVarNames = map[string]string{
	"python_version":                 "python_version",
	"python_full_version":            "python_full_version",
	"os_name":                        "os_name",
	"sys_platform":                   "sys_platform",
	"platform_release":               "platform_release",
	"platform_system":                "platform_system",
	"platform_version":               "platform_version",
	"platform_machine":               "platform_machine",
	"platform_python_implementation": "platform_python_implementation",
	"implementation_name":            "implementation_name",
	"implementation_version":         "implementation_version",
	"extra":                          "extra",

	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokOp
	tokIdent
	tokStr
)

type token struct {
	kind tokenKind
	text string
}

func lexMarker(str string) ([]token, error) {
	var toks []token
	for i := 0; i < len(str); {
		c := str[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(str[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string: %s", str[i:])
			}
			toks = append(toks, token{tokStr, str[i+1 : i+1+end]})
			i += end + 2
		case strings.IndexByte("<>=!~", c) >= 0:
			j := i
			for j < len(str) && strings.IndexByte("<>=!~", str[j]) >= 0 {
				j++
			}
			op := str[i:j]
			switch op {
			case "<", "<=", "!=", "==", ">=", ">", "~=", "===":
				toks = append(toks, token{tokOp, op})
			default:
				return nil, fmt.Errorf("invalid operator: %q", op)
			}
			i = j
		case isIdentStart(c):
			j := i
			for j < len(str) && isIdentCont(str[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, str[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character: %q", rune(c))
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || c == '.' || ('0' <= c && c <= '9')
}

type markerParser struct {
	toks []token
	pos  int
}

func (p *markerParser) peek() token {
	if p.pos >= len(p.toks) {
		return token{tokEOF, ""}
	}
	return p.toks[p.pos]
}

func (p *markerParser) next() token {
	tok := p.peek()
	p.pos++
	return tok
}

// ParseMarker parses an environment marker (the part of a dependency specification after the
// ";").
func ParseMarker(str string) (*Marker, error) {
	toks, err := lexMarker(str)
	if err != nil {
		return nil, fmt.Errorf("pep508.ParseMarker: %w", err)
	}
	parser := &markerParser{toks: toks}
	expr, err := parser.parseOr()
	if err != nil {
		return nil, fmt.Errorf("pep508.ParseMarker: %w", err)
	}
	if tok := parser.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("pep508.ParseMarker: unexpected %q", tok.text)
	}
	return &Marker{expr: expr}, nil
}

func (p *markerParser) parseOr() (markerNode, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "or" {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = orNode{lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *markerParser) parseAnd() (markerNode, error) {
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "and" {
		p.next()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lhs = andNode{lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *markerParser) parseExpr() (markerNode, error) {
	if p.peek().kind == tokLParen {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.kind != tokRParen {
			return nil, fmt.Errorf("expected %q, got %q", ")", tok.text)
		}
		return expr, nil
	}

	lhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	op, err := p.parseCmpOp()
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return cmpNode{lhs: lhs, op: op, rhs: rhs}, nil
}

func (p *markerParser) parseValue() (markerValue, error) {
	tok := p.next()
	switch tok.kind {
	case tokStr:
		return markerValue{isLiteral: true, text: tok.text}, nil
	case tokIdent:
		name, ok := markerVarNames[tok.text]
		if !ok {
			return markerValue{}, fmt.Errorf("unknown environment marker variable: %q", tok.text)
		}
		return markerValue{text: name}, nil
	default:
		return markerValue{}, fmt.Errorf("expected a variable or quoted string, got %q", tok.text)
	}
}

func (p *markerParser) parseCmpOp() (string, error) {
	tok := p.next()
	switch {
	case tok.kind == tokOp:
		return tok.text, nil
	case tok.kind == tokIdent && tok.text == "in":
		return "in", nil
	case tok.kind == tokIdent && tok.text == "not":
		if tok2 := p.next(); tok2.kind != tokIdent || tok2.text != "in" {
			return "", fmt.Errorf("expected %q after %q, got %q", "in", "not", tok2.text)
		}
		return "not in", nil
	default:
		return "", fmt.Errorf("expected a comparison operator, got %q", tok.text)
	}
}
