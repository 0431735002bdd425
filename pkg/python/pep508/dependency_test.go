package pep508_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pep508"
)

func mustParseSpecifier(t *testing.T, str string) pep440.Specifier {
	t.Helper()
	spec, err := pep440.ParseSpecifier(str)
	require.NoError(t, err)
	return spec
}

func mustParseMarker(t *testing.T, str string) *pep508.Marker {
	t.Helper()
	marker, err := pep508.ParseMarker(str)
	require.NoError(t, err)
	require.NotNil(t, marker)
	return marker
}

func TestParseDependency(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		InStr  string
		OutVal *pep508.Dependency
		OutErr string
	}{
		"bare": {
			InStr:  "requests",
			OutVal: &pep508.Dependency{Name: "requests"},
		},
		"minimum": {
			InStr: "numpy>=1.11.0",
			OutVal: &pep508.Dependency{
				Name:      "numpy",
				Specifier: mustParseSpecifier(t, ">=1.11.0"),
			},
		},
		"kitchen-sink": {
			InStr: `requests [security,tests] >= 2.8.1, == 2.8.* ; python_version < "2.7"`,
			OutVal: &pep508.Dependency{
				Name:      "requests",
				Extras:    []string{"security", "tests"},
				Specifier: mustParseSpecifier(t, ">=2.8.1,==2.8.*"),
				Marker:    mustParseMarker(t, `python_version < "2.7"`),
			},
		},
		"parenthesized": {
			InStr: `mock (==3.0.5) ; python_version < '3.0'`,
			OutVal: &pep508.Dependency{
				Name:      "mock",
				Specifier: mustParseSpecifier(t, "==3.0.5"),
				Marker:    mustParseMarker(t, `python_version < "3.0"`),
			},
		},
		"url": {
			InStr: "pip @ https://github.com/pypa/pip/archive/1.3.1.zip#sha1=da9234ee9982d4bbb3c72346a6de940a148ea686",
			OutVal: &pep508.Dependency{
				Name:      "pip",
				DirectURL: "https://github.com/pypa/pip/archive/1.3.1.zip#sha1=da9234ee9982d4bbb3c72346a6de940a148ea686",
			},
		},
		"url-marker": {
			InStr: `name [fred,bar] @ http://foo.com ; python_version == "2.7"`,
			OutVal: &pep508.Dependency{
				Name:      "name",
				Extras:    []string{"fred", "bar"},
				DirectURL: "http://foo.com",
				Marker:    mustParseMarker(t, `python_version == "2.7"`),
			},
		},
		"empty-extras": {
			InStr:  "requests[]",
			OutVal: &pep508.Dependency{Name: "requests"},
		},
		"no-name": {
			InStr:  "-foo",
			OutErr: `pep508.ParseDependency: name: no project name: "-foo"`,
		},
		"unterminated-extras": {
			InStr:  "foo[bar",
			OutErr: `pep508.ParseDependency: extras: unterminated extras list: "foo[bar"`,
		},
		"bad-extra": {
			InStr:  "foo[bar!]",
			OutErr: `pep508.ParseDependency: extras: invalid extra name: "bar!"`,
		},
		"bad-specifier": {
			InStr: "foo=1.0",
			OutErr: `pep508.ParseDependency: specifier: ` +
				`pep440.ParseSpecifier: invalid comparison operator: "=1.0"`,
		},
		"empty-url": {
			InStr:  "foo @",
			OutErr: `pep508.ParseDependency: url: empty URL: "foo @"`,
		},
		"url-junk": {
			InStr:  "foo @ http://example.com junk",
			OutErr: `pep508.ParseDependency: url: trailing junk after URL: "junk"`,
		},
		"empty-marker": {
			InStr:  "foo ;",
			OutErr: `pep508.ParseDependency: marker: empty marker after ";"`,
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			val, err := pep508.ParseDependency(tc.InStr)
			if tc.OutErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.OutVal, val)
			} else {
				assert.Nil(t, val)
				assert.EqualError(t, err, tc.OutErr)
			}
		})
	}
}

func TestDependencyString(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		In  string
		Out string
	}{
		{"requests", "requests"},
		{"numpy >= 1.11.0", "numpy>=1.11.0"},
		{"requests [security] >= 2.8.1, != 2.8.2", "requests[security]>=2.8.1,!=2.8.2"},
		{`mock (==3.0.5) ; python_version < '3.0'`, `mock==3.0.5 ; python_version < "3.0"`},
		{"pip @ https://example.com/pip-1.3.1.zip", "pip @ https://example.com/pip-1.3.1.zip"},
		{`foo ; os.name == 'posix' and extra == ""`, `foo ; os_name == "posix" and extra == ""`},
	}
	for _, tc := range testcases {
		tc := tc
		t.Run(tc.In, func(t *testing.T) {
			t.Parallel()
			dep, err := pep508.ParseDependency(tc.In)
			require.NoError(t, err)
			assert.Equal(t, tc.Out, dep.String())

			// the canonical spelling must re-parse to the same thing
			dep2, err := pep508.ParseDependency(dep.String())
			require.NoError(t, err)
			assert.Equal(t, dep, dep2)
		})
	}
}

func TestSortedExtras(t *testing.T) {
	t.Parallel()
	dep, err := pep508.ParseDependency("frob[Zope.Interface,socks,zope_interface,SOCKS]")
	require.NoError(t, err)
	assert.Equal(t, []string{"socks", "zope-interface"}, dep.SortedExtras())
	// the raw parse order is preserved in Extras
	assert.Equal(t, []string{"Zope.Interface", "socks", "zope_interface", "SOCKS"}, dep.Extras)
}
