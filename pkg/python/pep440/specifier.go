// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"
	"strings"
)

// A Specifier is a comma separated series of version clauses; a candidate
// version must match every clause in order to match the specifier as a
// whole (the comma is a logical AND).
//
//	~= 0.9, >= 1.0, != 1.3.4.*, < 2.0
type Specifier []SpecifierClause

// A SpecifierClause is one comparison operator together with its operand.
// For every operator but CmpOp_Arbitrary the operand is the parsed Version;
// an arbitrary-equality (`===`) clause instead keeps the operand text
// verbatim in Legacy, since it need not be a valid version at all.
type SpecifierClause struct {
	CmpOp   CmpOp
	Version Version
	Legacy  string
}

type CmpOp int

const (
	CmpOp_Compatible    CmpOp = iota // ~=
	CmpOp_StrictMatch                // ==
	CmpOp_PrefixMatch                // == X.*
	CmpOp_StrictExclude              // !=
	CmpOp_PrefixExclude              // != X.*
	CmpOp_LE
	CmpOp_GE
	CmpOp_LT
	CmpOp_GT
	CmpOp_Arbitrary // ===
	cmpOpEnd
)

//nolint:gochecknoglobals // Would be 'const'.
var cmpOpNames = map[CmpOp]string{
	CmpOp_Compatible:    "~=",
	CmpOp_StrictMatch:   "strict ==",
	CmpOp_PrefixMatch:   "prefix ==",
	CmpOp_StrictExclude: "strict !=",
	CmpOp_PrefixExclude: "prefix !=",
	CmpOp_LE:            "<=",
	CmpOp_GE:            ">=",
	CmpOp_LT:            "<",
	CmpOp_GT:            ">",
	CmpOp_Arbitrary:     "===",
}

func (op CmpOp) String() string {
	str, ok := cmpOpNames[op]
	if !ok {
		panic(fmt.Errorf("invalid CmpOp: %d", op))
	}
	return str
}

// ParseSpecifier parses a version specifier.  The empty string is a valid
// specifier (it matches everything), as whitespace between the operator and
// the version, around the commas, and around the whole thing is ignored.
func ParseSpecifier(str string) (Specifier, error) {
	clauseStrs := strings.FieldsFunc(str, func(r rune) bool { return r == ',' })
	ret := make(Specifier, 0, len(clauseStrs))
	for _, clauseStr := range clauseStrs {
		clauseStr = strings.TrimSpace(clauseStr)
		if clauseStr == "" {
			continue
		}
		clause, err := parseSpecifierClause(clauseStr)
		if err != nil {
			return nil, fmt.Errorf("pep440.ParseSpecifier: %w", err)
		}
		ret = append(ret, clause)
	}
	return ret, nil
}

func parseSpecifierClause(str string) (SpecifierClause, error) {
	var ret SpecifierClause

	if strings.HasPrefix(str, "===") {
		// Arbitrary equality: "simple string equality ... does not take
		// into account any of the semantic information such as zero
		// padding or local versions."
		ret.CmpOp = CmpOp_Arbitrary
		ret.Legacy = strings.TrimSpace(str[3:])
		if ret.Legacy == "" {
			return ret, fmt.Errorf("empty version in === specifier clause")
		}
		return ret, nil
	}

	// Restrictions on the operand, per operator:
	//   - "~=" MUST NOT be used with a single segment version
	//   - prefix matches make no sense against .devN or +local suffixes
	//   - only "==" and "!=" may name a local version
	minSegments := 1
	devOK := true
	localOK := false
	switch {
	case strings.HasPrefix(str, "~="):
		ret.CmpOp = CmpOp_Compatible
		str = str[2:]
		minSegments = 2
	case strings.HasPrefix(str, "=="):
		ret.CmpOp = CmpOp_StrictMatch
		str = str[2:]
		localOK = true
	case strings.HasPrefix(str, "!="):
		ret.CmpOp = CmpOp_StrictExclude
		str = str[2:]
		localOK = true
	case strings.HasPrefix(str, "<="):
		ret.CmpOp = CmpOp_LE
		str = str[2:]
	case strings.HasPrefix(str, ">="):
		ret.CmpOp = CmpOp_GE
		str = str[2:]
	case strings.HasPrefix(str, "<"):
		ret.CmpOp = CmpOp_LT
		str = str[1:]
	case strings.HasPrefix(str, ">"):
		ret.CmpOp = CmpOp_GT
		str = str[1:]
	default:
		return ret, fmt.Errorf("invalid comparison operator: %q", str)
	}
	if strings.HasSuffix(str, ".*") {
		switch ret.CmpOp {
		case CmpOp_StrictMatch:
			ret.CmpOp = CmpOp_PrefixMatch
		case CmpOp_StrictExclude:
			ret.CmpOp = CmpOp_PrefixExclude
		default:
			return ret, fmt.Errorf("prefix-match suffix not permitted in %s specifier clauses", ret.CmpOp)
		}
		str = strings.TrimSuffix(str, ".*")
		devOK = false
		localOK = false
	}

	ver, err := ParseVersion(str)
	if err != nil {
		return ret, err
	}
	if len(ver.Release) < minSegments {
		return ret, fmt.Errorf("at least %d release segments required in %s specifier clauses",
			minSegments, ret.CmpOp)
	}
	if ver.Dev != nil && !devOK {
		return ret, fmt.Errorf("dev-part not permitted in %s specifier clauses", ret.CmpOp)
	}
	if len(ver.Local) > 0 && !localOK {
		return ret, fmt.Errorf("local-part not permitted in %s specifier clauses", ret.CmpOp)
	}
	ret.Version = *ver
	return ret, nil
}

func (spec Specifier) String() string {
	clauses := make([]string, 0, len(spec))
	for _, clause := range spec {
		clauses = append(clauses, clause.String())
	}
	return strings.Join(clauses, ",")
}

func (spec SpecifierClause) String() string {
	switch spec.CmpOp {
	case CmpOp_Arbitrary:
		return "===" + spec.Legacy
	case CmpOp_Compatible:
		return "~=" + spec.Version.String()
	case CmpOp_StrictMatch:
		return "==" + spec.Version.String()
	case CmpOp_PrefixMatch:
		return "==" + spec.Version.String() + ".*"
	case CmpOp_StrictExclude:
		return "!=" + spec.Version.String()
	case CmpOp_PrefixExclude:
		return "!=" + spec.Version.String() + ".*"
	case CmpOp_LE:
		return "<=" + spec.Version.String()
	case CmpOp_GE:
		return ">=" + spec.Version.String()
	case CmpOp_LT:
		return "<" + spec.Version.String()
	case CmpOp_GT:
		return ">" + spec.Version.String()
	default:
		panic(fmt.Errorf("invalid CmpOp: %d", spec.CmpOp))
	}
}

// Match reports whether the candidate version matches every clause.
func (spec Specifier) Match(ver Version) bool {
	for _, clause := range spec {
		if !clause.Match(ver) {
			return false
		}
	}
	return true
}

// Match reports whether the candidate version matches the clause.
func (spec SpecifierClause) Match(ver Version) bool {
	switch spec.CmpOp {
	case CmpOp_Compatible:
		return matchCompatible(spec.Version, ver)
	case CmpOp_StrictMatch:
		return matchStrictMatch(spec.Version, ver)
	case CmpOp_PrefixMatch:
		return matchPrefixMatch(spec.Version, ver)
	case CmpOp_StrictExclude:
		return !matchStrictMatch(spec.Version, ver)
	case CmpOp_PrefixExclude:
		return !matchPrefixMatch(spec.Version, ver)
	case CmpOp_LE:
		return spec.Version.Cmp(ver) >= 0
	case CmpOp_GE:
		return spec.Version.Cmp(ver) <= 0
	case CmpOp_LT:
		return spec.Version.Cmp(ver) > 0
	case CmpOp_GT:
		return spec.Version.Cmp(ver) < 0
	case CmpOp_Arbitrary:
		return strings.EqualFold(spec.Legacy, ver.String())
	default:
		panic(fmt.Errorf("invalid CmpOp: %d", spec.CmpOp))
	}
}

// matchCompatible: "for a given release identifier V.N, the compatible
// release clause is approximately equivalent to the pair of comparison
// clauses >= V.N, == V.*"; any pre/post/dev suffix on V.N is dropped when
// forming the prefix.
func matchCompatible(spec, ver Version) bool {
	prefix := spec
	prefix.Release = prefix.Release[:len(prefix.Release)-1]
	prefix.Pre = nil
	prefix.Post = nil
	prefix.Dev = nil
	return spec.Cmp(ver) <= 0 && matchPrefixMatch(prefix, ver)
}

// matchStrictMatch: equality under the zero-padding rule.  A public spec
// version ignores the candidate's local label; a local spec version
// requires the labels to be equal too.
func matchStrictMatch(spec, ver Version) bool {
	if len(spec.Local) == 0 {
		return spec.PublicVersion.Cmp(ver.PublicVersion) == 0
	}
	return spec.Cmp(ver) == 0
}

// matchPrefixMatch: the written-out part of the spec version must match the
// candidate exactly; everything to the right of it is ignored.  "For
// purposes of prefix matching, the pre-release segment is considered to
// have an implied preceding `.`"; dev and local parts cannot be written in
// a prefix (parseSpecifierClause rejects them), so the rightmost writable
// part is the post-release.
func matchPrefixMatch(spec, ver Version) bool {
	if cmpEpoch(spec.PublicVersion, ver.PublicVersion) != 0 {
		return false
	}

	if spec.Pre == nil && spec.Post == nil {
		// The release segment itself is the terminal part; ignore the
		// candidate's trailing release segments along with everything
		// else.
		trunc := ver.PublicVersion
		if len(trunc.Release) > len(spec.Release) {
			trunc.Release = trunc.Release[:len(spec.Release)]
		}
		return cmpRelease(spec.PublicVersion, trunc) == 0
	}

	if cmpRelease(spec.PublicVersion, ver.PublicVersion) != 0 {
		return false
	}
	if (spec.Pre == nil) != (ver.Pre == nil) {
		return false
	}
	if spec.Pre != nil && (preRank[spec.Pre.L] != preRank[ver.Pre.L] || spec.Pre.N != ver.Pre.N) {
		return false
	}
	if spec.Post == nil {
		return true // pre-release was the terminal part
	}
	return cmpPost(spec.PublicVersion, ver.PublicVersion) == 0
}

// An ExclusionBehavior customizes Specifier.Select's handling of versions
// that match the specifier but should nonetheless be avoided when there is
// any alternative; canonically pre-releases ("pre-releases of any kind ...
// are implicitly excluded from all version specifiers") and yanked files.
// Allow reports whether a version is safe to hand out.
type ExclusionBehavior interface {
	Allow(Version) bool
}

// AllowAll is an ExclusionBehavior that excludes nothing.
type AllowAll struct{}

func (AllowAll) Allow(_ Version) bool { return true }

// ExcludePreReleases is an ExclusionBehavior that avoids pre-releases and
// developmental releases, except for those explicitly listed (e.g. because
// they are already installed, or were explicitly requested).
type ExcludePreReleases struct {
	AllowList []Version
}

func (x ExcludePreReleases) Allow(ver Version) bool {
	if !ver.IsPreRelease() {
		return true
	}
	for _, item := range x.AllowList {
		if item.Cmp(ver) == 0 {
			return true
		}
	}
	return false
}

// MultiExcluder is an ExclusionBehavior that ANDs multiple other
// ExclusionBehaviors together; only allowing a version if all of the
// behaviors allow it.
type MultiExcluder []ExclusionBehavior

func (m MultiExcluder) Allow(ver Version) bool {
	for _, e := range m {
		if !e.Allow(ver) {
			return false
		}
	}
	return true
}

// Select returns the highest-ordered choice that matches the specifier,
// preferring choices that the ExclusionBehavior allows but falling back to
// excluded ones when nothing allowed matches ("accept remotely available
// pre-releases for version specifiers where there is no final or post
// release that satisfies the version specifier").  It returns nil when no
// choice matches at all.
func (spec Specifier) Select(choices []Version, exclusionBehavior ExclusionBehavior) *Version {
	var best *Version
	var bestExcluded *Version
	for _, choice := range choices {
		choice := choice
		if !spec.Match(choice) {
			continue
		}
		if exclusionBehavior == nil || exclusionBehavior.Allow(choice) {
			if best == nil || best.Cmp(choice) < 0 {
				best = &choice
			}
		} else {
			if bestExcluded == nil || bestExcluded.Cmp(choice) < 0 {
				bestExcluded = &choice
			}
		}
	}
	if best != nil {
		return best
	}
	return bestExcluded
}
