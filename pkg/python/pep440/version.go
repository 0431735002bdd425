// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// A Version is a local version identifier:
//
//	<public version identifier>[+<local version label>]
//
// Most code should traffic in this type; the public/local distinction only
// matters to callers that need to enforce "local version identifiers MUST
// NOT be permitted in version specifiers"-type rules.
type Version = LocalVersion

// A PublicVersion is a public version identifier, canonically spelled
//
//	[N!]N(.N)*[{a|b|rc}N][.postN][.devN]
//
// separated into its up-to-five segments.
type PublicVersion struct {
	Epoch   int
	Release []int
	Pre     *PreRelease
	Post    *int
	Dev     *int
}

// A PreRelease is the pre-release segment of a version; L is one of "a",
// "b", or "rc" once normalized.
type PreRelease struct {
	L string
	N int
}

// A LocalVersion pairs a public version with the (possibly empty) dot
// separated segments of its local version label.
type LocalVersion struct {
	PublicVersion
	Local []intstr.IntOrString
}

// ParseVersion parses a version string, accepting all of PEP 440's
// "alternative" spellings and returning the normalized structure:
//
//   - ASCII letters are folded to lowercase ("1.1RC1" == "1.1rc1")
//   - integers are parsed per int() ("09000" == "9000")
//   - pre-release separators and spellings are folded ("1.1.a1", "1.1-a1",
//     "1.1alpha1" == "1.1a1"; "c", "pre", "preview" == "rc")
//   - post-release separators and spellings are folded ("1.2-post2",
//     "1.2post2", "1.2-r2" == "1.2.post2"; a bare "1.0-1" == "1.0.post1")
//   - dev-release separators are folded ("1.2-dev2" == "1.2.dev2")
//   - implicit segment numbers are zero ("1.2a" == "1.2a0")
//   - a single leading "v" and surrounding whitespace are discarded
func ParseVersion(str string) (*Version, error) {
	ver, err := parseVersion(str)
	if err != nil {
		return nil, fmt.Errorf("pep440.ParseVersion: %w", err)
	}
	return ver, nil
}

// ParsePublicVersion is ParseVersion restricted to public version
// identifiers; a local version label is an error.
func ParsePublicVersion(str string) (*PublicVersion, error) {
	ver, err := parseVersion(str)
	if err != nil {
		return nil, fmt.Errorf("pep440.ParsePublicVersion: %w", err)
	}
	if len(ver.Local) > 0 {
		return nil, fmt.Errorf("pep440.ParsePublicVersion: local version label not permitted: %q", str)
	}
	return &ver.PublicVersion, nil
}

// reVersion is the `packaging` project's VERSION_PATTERN (PEP 440 Appendix
// B), anchored and with Python's re.VERBOSE-ness stripped out so that Go's
// regexp can digest it.
var reVersion = regexp.MustCompile(`(?i)^\s*` + regexp.MustCompile(`(?:\s+|#.*)`).ReplaceAllString(`
		v?
		(?:
		    (?:(?P<epoch>[0-9]+)!)?                           # epoch
		    (?P<release>[0-9]+(?:\.[0-9]+)*)                  # release segment
		    (?P<pre>                                          # pre-release
		        [-_\.]?
		        (?P<pre_l>(a|b|c|rc|alpha|beta|pre|preview))
		        [-_\.]?
		        (?P<pre_n>[0-9]+)?
		    )?
		    (?P<post>                                         # post release
		        (?:-(?P<post_n1>[0-9]+))
		        |
		        (?:
		            [-_\.]?
		            (?P<post_l>post|rev|r)
		            [-_\.]?
		            (?P<post_n2>[0-9]+)?
		        )
		    )?
		    (?P<dev>                                          # dev release
		        [-_\.]?
		        (?P<dev_l>dev)
		        [-_\.]?
		        (?P<dev_n>[0-9]+)?
		    )?
		)
		(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?       # local version
	`, ``) + `\s*$`)

// canonicalSpellings maps each permitted alternative spelling of a
// pre/post/dev signifier to its normal form.
//
//nolint:gochecknoglobals // Would be 'const'.
var canonicalSpellings = map[string]string{
	"a": "a", "alpha": "a",
	"b": "b", "beta": "b",
	"rc": "rc", "c": "rc", "pre": "rc", "preview": "rc",
	"post": "post", "rev": "post", "r": "post", "": "post",
	"dev": "dev",
}

// parseSuffix turns a (signifier, number) pair of submatches in to the
// normalized signifier and numeric value.  Both strings empty means the
// segment is absent; an absent number is implicitly zero.
func parseSuffix(letter, number string) (string, *int, error) {
	if letter == "" && number == "" {
		return "", nil, nil
	}
	canonical, ok := canonicalSpellings[strings.ToLower(letter)]
	if !ok {
		return "", nil, fmt.Errorf("invalid string-part: %q", letter)
	}
	n := 0
	if number != "" {
		var err error
		n, err = strconv.Atoi(number)
		if err != nil {
			return "", nil, err
		}
	}
	return canonical, &n, nil
}

func parseVersion(str string) (*Version, error) {
	match := reVersion.FindStringSubmatch(str)
	if match == nil {
		return nil, fmt.Errorf("invalid version: %q", str)
	}
	group := func(name string) string {
		return match[reVersion.SubexpIndex(name)]
	}

	var ver Version

	if epoch := group("epoch"); epoch != "" {
		n, err := strconv.Atoi(epoch)
		if err != nil {
			return nil, err
		}
		ver.Epoch = n
	}

	for _, segStr := range strings.Split(group("release"), ".") {
		seg, err := strconv.Atoi(segStr)
		if err != nil {
			return nil, err
		}
		ver.Release = append(ver.Release, seg)
	}

	preL, preN, err := parseSuffix(group("pre_l"), group("pre_n"))
	if err != nil {
		return nil, fmt.Errorf("pre-release: %w", err)
	}
	if preN != nil {
		ver.Pre = &PreRelease{L: preL, N: *preN}
	}

	// post_n1 is the implicit-post-release "1.0-1" form; post_n2 goes with
	// an explicit signifier.  At most one of them can have matched.
	if group("post") != "" {
		_, postN, err := parseSuffix(group("post_l"), group("post_n1")+group("post_n2"))
		if err != nil {
			return nil, fmt.Errorf("post-release: %w", err)
		}
		ver.Post = postN
	}

	if group("dev") != "" {
		_, devN, err := parseSuffix(group("dev_l"), group("dev_n"))
		if err != nil {
			return nil, fmt.Errorf("dev: %w", err)
		}
		ver.Dev = devN
	}

	for _, part := range strings.FieldsFunc(group("local"), isLocalSep) {
		ver.Local = append(ver.Local, intstr.Parse(strings.ToLower(part)))
	}

	return &ver, nil
}

func isLocalSep(r rune) bool {
	return r == '-' || r == '_' || r == '.'
}

func (ver PublicVersion) writeTo(ret *strings.Builder) {
	if ver.Epoch > 0 {
		fmt.Fprintf(ret, "%d!", ver.Epoch)
	}
	if len(ver.Release) == 0 {
		panic("invalid version: no release segments")
	}
	for i, segment := range ver.Release {
		if i > 0 {
			ret.WriteByte('.')
		}
		fmt.Fprintf(ret, "%d", segment)
	}
	if ver.Pre != nil {
		fmt.Fprintf(ret, "%s%d", ver.Pre.L, ver.Pre.N)
	}
	if ver.Post != nil {
		fmt.Fprintf(ret, ".post%d", *ver.Post)
	}
	if ver.Dev != nil {
		fmt.Fprintf(ret, ".dev%d", *ver.Dev)
	}
}

// String implements fmt.Stringer, emitting the canonical spelling.  It does
// not re-normalize; a structure built by hand with (say) an "alpha" Pre.L is
// emitted as written.
func (ver PublicVersion) String() string {
	var ret strings.Builder
	ver.writeTo(&ret)
	return ret.String()
}

// String implements fmt.Stringer.
func (ver LocalVersion) String() string {
	var ret strings.Builder
	ver.PublicVersion.writeTo(&ret)
	for i, local := range ver.Local {
		if i == 0 {
			ret.WriteByte('+')
		} else {
			ret.WriteByte('.')
		}
		ret.WriteString(local.String())
	}
	return ret.String()
}

// GoString implements fmt.GoStringer.
func (ver PublicVersion) GoString() string {
	pre := "nil"
	if ver.Pre != nil {
		pre = fmt.Sprintf("&%#v", *ver.Pre)
	}
	post := "nil"
	if ver.Post != nil {
		post = fmt.Sprintf("intPtr(%#v)", *ver.Post)
	}
	dev := "nil"
	if ver.Dev != nil {
		dev = fmt.Sprintf("intPtr(%#v)", *ver.Dev)
	}
	return fmt.Sprintf("pep440.PublicVersion{Epoch:%d, Release:%#v, Pre:%s, Post:%s, Dev:%s}",
		ver.Epoch, ver.Release, pre, post, dev)
}

// GoString implements fmt.GoStringer.
func (ver LocalVersion) GoString() string {
	return fmt.Sprintf("pep440.LocalVersion{PublicVersion:%#v, Local:%#v}",
		ver.PublicVersion, ver.Local)
}

// Normalize re-parses the canonical spelling, fixing up any hand-built
// structure (alternative Pre.L spellings and the like).
func (ver PublicVersion) Normalize() (*PublicVersion, error) {
	n, err := ParseVersion(ver.String())
	if err != nil {
		return nil, err
	}
	return &n.PublicVersion, nil
}

// Normalize re-parses the canonical spelling, fixing up any hand-built
// structure.
func (ver LocalVersion) Normalize() (*LocalVersion, error) {
	return ParseVersion(ver.String())
}

// releaseSegment reads the n'th release segment under the zero-padding rule:
// "the shorter segment is padded out with additional zeros as necessary".
func (ver PublicVersion) releaseSegment(n int) int {
	if n < len(ver.Release) {
		return ver.Release[n]
	}
	return 0
}

func (ver PublicVersion) Major() int { return ver.releaseSegment(0) }
func (ver PublicVersion) Minor() int { return ver.releaseSegment(1) }
func (ver PublicVersion) Micro() int { return ver.releaseSegment(2) }

// IsFinal reports whether the version is a final release; that is, whether
// it consists solely of a release segment and optionally an epoch.
func (ver PublicVersion) IsFinal() bool {
	return ver.Pre == nil && ver.Post == nil && ver.Dev == nil
}

// IsFinal reports whether the version is a final release with no local
// version label.
func (ver LocalVersion) IsFinal() bool {
	return ver.PublicVersion.IsFinal() && len(ver.Local) == 0
}

// IsPreRelease reports whether the version is a pre-release or a
// developmental release; these are the versions that specifiers implicitly
// exclude.
func (ver PublicVersion) IsPreRelease() bool {
	return ver.Pre != nil || ver.Dev != nil
}

// IsLocal reports whether the version carries a local version label.
func (ver LocalVersion) IsLocal() bool {
	return len(ver.Local) > 0
}
