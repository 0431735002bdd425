package pep440_test

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/testutil"
)

// TestSort checks the total order against the orderings that the spec text
// itself lists.
func TestSort(t *testing.T) {
	t.Parallel()
	testcases := map[string][]string{
		"final-releases": {
			"0.9",
			"0.9.1",
			"0.9.2",
			"0.9.10",
			"0.9.11",
			"1.0",
			"1.0.1",
			"1.1",
			"2.0",
			"2.0.1",
		},
		"date-based": {
			"2012.4",
			"2012.7",
			"2012.10",
			"2013.1",
			"2013.6",
		},
		"pre-releases": {
			"4.3a2",
			"4.3b2",
			"4.3rc2",
			"4.3",
		},
		"post-releases-of-pre-releases": {
			"4.3a2.post1",
			"4.3b2.post1",
			"4.3rc2.post1",
		},
		"dev-releases": {
			"4.3a2.dev1",
			"4.3b2.dev1",
			"4.3rc2.dev1",
			"4.3.post2.dev1",
		},
		"epochs": {
			"2013.10",
			"2014.04",
			"1!1.0",
			"1!1.1",
			"1!2.0",
		},
		"development-cycle": {
			"0.9",
			"1.0.dev1",
			"1.0.dev2",
			"1.0.dev3",
			"1.0.dev4",
			"1.0c1",
			"1.0c2",
			"1.0",
			"1.0.post1",
			"1.1.dev1",
		},
		"suffix-summary": {
			"1.0.dev456",
			"1.0a1",
			"1.0a2.dev456",
			"1.0a12.dev456",
			"1.0a12",
			"1.0b1.dev456",
			"1.0b2",
			"1.0b2.post345.dev456",
			"1.0b2.post345",
			"1.0rc1.dev456",
			"1.0rc1",
			"1.0",
			"1.0+abc.5",
			"1.0+abc.7",
			"1.0+5",
			"1.0.post456.dev34",
			"1.0.post456",
			"1.1.dev1",
		},
		// our own
		"local-segments": {
			"1.0",
			"1.0+a",
			"1.0+bar",
			"1.0+z",
			"1.0+0",
			"1.0+0.z",
			"1.0+0.0",
			"1.0+0.0.0",
			"1.0+1",
			"1.0+10",
			"1.1",
		},
	}
	for tcName, tcData := range testcases {
		strs := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			rand := rand.New(rand.NewSource(time.Now().UnixNano()))

			vers := make([]*pep440.Version, 0, len(strs))
			exps := make([]string, 0, len(strs))
			for _, str := range strs {
				ver, err := pep440.ParseVersion(str)
				require.NoError(t, err)
				require.NotNil(t, ver)
				vers = append(vers, ver)
				exps = append(exps, ver.String())
			}

			// shuffle so that `sort` has something to do
			rand.Shuffle(len(vers), func(i, j int) {
				vers[i], vers[j] = vers[j], vers[i]
			})

			sort.Slice(vers, func(i, j int) bool {
				return vers[i].Cmp(*vers[j]) < 0
			})
			acts := make([]string, 0, len(strs))
			for _, ver := range vers {
				acts = append(acts, ver.String())
			}
			assert.Equal(t, exps, acts)
		})
	}
}

// TestNormalize checks each normalization rule's example from the spec
// text.
func TestNormalize(t *testing.T) {
	t.Parallel()
	type TestCase struct {
		Input      string
		Normalized string // empty for parse error
	}
	testcases := map[string]TestCase{
		"case-sensitivity":                    {"1.1RC1", "1.1rc1"},
		"integer-normalization-1":             {"00", "0"},
		"integer-normalization-2":             {"09000", "9000"},
		"integer-normalization-3":             {"1.0+foo0100", "1.0+foo0100"},
		"pre-release-separators-1":            {"1.1.a1", "1.1a1"},
		"pre-release-separators-2":            {"1.1-a1", "1.1a1"},
		"pre-release-separators-3":            {"1.0a.1", "1.0a1"},
		"pre-release-spelling-1":              {"1.1alpha1", "1.1a1"},
		"pre-release-spelling-2":              {"1.1beta2", "1.1b2"},
		"pre-release-spelling-3":              {"1.1c3", "1.1rc3"},
		"pre-release-spelling-4":              {"1.1pre3", "1.1rc3"},
		"pre-release-spelling-5":              {"1.1preview3", "1.1rc3"},
		"implicit-pre-release-number":         {"1.2a", "1.2a0"},
		"post-release-separators-1":           {"1.2-post2", "1.2.post2"},
		"post-release-separators-2":           {"1.2post2", "1.2.post2"},
		"post-release-separators-3":           {"1.2.post.2", "1.2.post2"},
		"post-release-spelling-1":             {"1.0-r4", "1.0.post4"},
		"post-release-spelling-2":             {"1.0rev4", "1.0.post4"},
		"implicit-post-release-number":        {"1.2.post", "1.2.post0"},
		"implicit-post-releases-1":            {"1.0-1", "1.0.post1"},
		"implicit-post-releases-2":            {"1.0-", ""},
		"implicit-post-releases-underscore":   {"1.0_1", ""},
		"development-release-separators-1":    {"1.2-dev2", "1.2.dev2"},
		"development-release-separators-2":    {"1.2dev2", "1.2.dev2"},
		"implicit-development-release-number": {"1.2.dev", "1.2.dev0"},
		"local-version-segments":              {"1.0+ubuntu-1", "1.0+ubuntu.1"},
		"preceding-v-character":               {"v1.0", "1.0"},
		"leading-and-trailing-whitespace":     {"1.0\n", "1.0"},
		"garbage":                             {"french toast", ""},
		"empty":                               {"", ""},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			t.Logf("input: %q", tcData.Input)
			ver, err := pep440.ParseVersion(tcData.Input)
			if tcData.Normalized == "" {
				assert.Error(t, err)
				assert.Nil(t, ver)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, ver)
				assert.Equal(t, tcData.Normalized, ver.String())
				if len(ver.Local) == 0 {
					assert.Equal(t, tcData.Normalized, ver.PublicVersion.String())
				}
			}
		})
	}
}

// TestStringFixpoint: parsing a version's String() must reproduce the
// version, and Cmp must agree that they are equal both ways.
func TestStringFixpoint(t *testing.T) {
	t.Parallel()

	staticInputs := []pep440.Version{
		mustParseVersion(t, "1.0"),
		mustParseVersion(t, "1!2.3.4rc5.post6.dev7+eight.9"),
	}

	statics := make([][]interface{}, len(staticInputs))
	for i := range statics {
		statics[i] = []interface{}{staticInputs[i]}
	}

	testutil.QuickCheck(t,
		func(ver1 pep440.Version) bool {
			_ver2, err := pep440.ParseVersion(ver1.String())
			if err != nil || _ver2 == nil {
				return false
			}
			ver2 := *_ver2
			return (ver1.Cmp(ver2) == 0) && (ver2.Cmp(ver1) == 0)
		},
		testutil.QuickConfig{},
		statics...)
}

// TestSymmetry: Cmp(a,b) == -Cmp(b,a), under progressively more of the
// version being locked to be equal.
func TestSymmetry(t *testing.T) {
	t.Parallel()
	const (
		partNone = iota
		partEpoch
		partRel
		partPre
		partPost
		partDev
		partLocal
	)
	names := []string{
		"none",
		"epoch",
		"rel",
		"pre",
		"post",
		"dev",
		"local",
	}
	staticInputs := [][2]pep440.Version{
		{mustParseVersion(t, "1.0+1.0"), mustParseVersion(t, "1.0+1.0.0")},
		{mustParseVersion(t, "1.0+1.foo"), mustParseVersion(t, "1.0+1.bar")},
	}

	statics := make([][]interface{}, len(staticInputs))
	for i := range statics {
		statics[i] = []interface{}{
			staticInputs[i][0],
			staticInputs[i][1],
		}
	}

	for lockdown := 0; lockdown <= partLocal; lockdown++ {
		lockdown := lockdown
		t.Run("lockdown-"+names[lockdown], func(t *testing.T) {
			t.Parallel()
			testutil.QuickCheck(t,
				func(ver1, ver2 pep440.Version) bool {
					if lockdown >= partEpoch {
						ver2.Epoch = ver1.Epoch
					}
					if lockdown >= partRel {
						ver2.Release = ver1.Release
					}
					if lockdown >= partPre {
						ver2.Pre = ver1.Pre
					}
					if lockdown >= partPost {
						ver2.Post = ver1.Post
					}
					if lockdown >= partDev {
						ver2.Dev = ver1.Dev
					}
					if lockdown >= partLocal {
						ver2.Local = ver1.Local
					}
					ret := ver1.Cmp(ver2) == -ver2.Cmp(ver1)
					if lockdown == partLocal {
						ret = ret && ver1.Cmp(ver2) == 0 && ver2.Cmp(ver1) == 0
					}
					if !ret {
						t.Logf("failing:\n\tver1=%s\n\tver2=%s\n\tver1.Cmp(ver2)=%v\n\tver2.Cmp(ver1)=%v",
							ver1, ver2,
							ver1.Cmp(ver2), ver2.Cmp(ver1))
					}
					return ret
				},
				testutil.QuickConfig{},
				statics...)
		})
	}
}

func TestZeroPadding(t *testing.T) {
	t.Parallel()
	// X.Y and X.Y.0 are not considered distinct release numbers.
	a := mustParseVersion(t, "1.1")
	b := mustParseVersion(t, "1.1.0")
	assert.Equal(t, 0, a.Cmp(b))
	assert.Equal(t, 0, b.Cmp(a))
	// ... but they keep their spelling.
	assert.Equal(t, "1.1", a.String())
	assert.Equal(t, "1.1.0", b.String())
}

func TestParsePublicVersion(t *testing.T) {
	t.Parallel()
	pub, err := pep440.ParsePublicVersion("v1.2.RC3")
	require.NoError(t, err)
	assert.Equal(t, "1.2rc3", pub.String())

	pub, err = pep440.ParsePublicVersion("1.2+local.1")
	assert.Nil(t, pub)
	assert.EqualError(t, err,
		`pep440.ParsePublicVersion: local version label not permitted: "1.2+local.1"`)
}

func TestUtilMethods(t *testing.T) {
	t.Parallel()
	type TestCase struct {
		Input pep440.Version

		Major        int
		Minor        int
		Micro        int
		IsPreRelease bool
		IsLocal      bool

		LocalIsFinal  bool
		PublicString  string
		PublicIsFinal bool
	}
	testcases := []TestCase{
		{mustParseVersion(t, "1"), 1, 0, 0, false, false, true, "1", true},
		{mustParseVersion(t, "1+par"), 1, 0, 0, false, true, false, "1", true},
		{mustParseVersion(t, "1.2"), 1, 2, 0, false, false, true, "1.2", true},
		{mustParseVersion(t, "1.2.3"), 1, 2, 3, false, false, true, "1.2.3", true},
		{mustParseVersion(t, "1.2rc2"), 1, 2, 0, true, false, false, "1.2rc2", false},
		{mustParseVersion(t, "1.2.dev3"), 1, 2, 0, true, false, false, "1.2.dev3", false},
		{mustParseVersion(t, "1.2rc2.post3"), 1, 2, 0, true, false, false, "1.2rc2.post3", false},
		{mustParseVersion(t, "1.2.post3"), 1, 2, 0, false, false, false, "1.2.post3", false},
		{mustParseVersion(t, "1.2rc2+par"), 1, 2, 0, true, true, false, "1.2rc2", false},
	}
	for _, tc := range testcases {
		tc := tc
		t.Run(tc.Input.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.Major, tc.Input.Major(), "Major")
			assert.Equal(t, tc.Minor, tc.Input.Minor(), "Minor")
			assert.Equal(t, tc.Micro, tc.Input.Micro(), "Micro")
			assert.Equal(t, tc.IsPreRelease, tc.Input.IsPreRelease(), "IsPreRelease")
			assert.Equal(t, tc.IsLocal, tc.Input.IsLocal(), "IsLocal")
			assert.Equal(t, tc.LocalIsFinal, tc.Input.IsFinal(), "LocalVersion.IsFinal")
			assert.Equal(t, tc.PublicString, tc.Input.PublicVersion.String(), "PublicVersion.String")
			assert.Equal(t, tc.PublicIsFinal, tc.Input.PublicVersion.IsFinal(), "PublicVersion.IsFinal")
		})
	}
}

func TestGoString(t *testing.T) {
	t.Parallel()
	ver := pep440.PublicVersion{
		Epoch:   1,
		Release: []int{2, 3},
		Post:    intPtr(4),
	}
	assert.Equal(t,
		"pep440.PublicVersion{Epoch:1, Release:[]int{2, 3}, Pre:nil, Post:intPtr(4), Dev:nil}",
		ver.GoString())
}
