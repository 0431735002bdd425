package pep592_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pep503"
	"github.com/datawire/reqtool/pkg/python/pep592"
)

func mustParseVersion(t *testing.T, str string) pep440.Version {
	t.Helper()
	ver, err := pep440.ParseVersion(str)
	require.NoError(t, err)
	require.NotNil(t, ver)
	return *ver
}

func TestExcludeYanked(t *testing.T) {
	t.Parallel()
	links := []pep503.FileLink{
		{Link: pep503.Link{Text: "frob-1.0.tar.gz"}},
		// 1.1's sdist is yanked, but its wheel is not; the version is still good.
		{Link: pep503.Link{Text: "frob-1.1.tar.gz",
			DataAttrs: map[string]string{"data-yanked": ""}}},
		{Link: pep503.Link{Text: "frob-1.1-py3-none-any.whl"}},
		// every file of 1.2 is yanked
		{Link: pep503.Link{Text: "frob-1.2.tar.gz",
			DataAttrs: map[string]string{"data-yanked": "broken"}}},
		{Link: pep503.Link{Text: "frob-1.2-py3-none-any.whl",
			DataAttrs: map[string]string{"data-yanked": "broken"}}},
		// unparseable filenames don't blow up
		{Link: pep503.Link{Text: "frob-docs.pdf"}},
	}

	assert.False(t, pep592.IsYanked(links[0]))
	assert.True(t, pep592.IsYanked(links[1]))
	assert.Equal(t, "broken", pep592.YankedReason(links[3]))

	excl := pep592.ExcludeYanked(links)
	assert.True(t, excl.Allow(mustParseVersion(t, "1.0")))
	assert.True(t, excl.Allow(mustParseVersion(t, "1.1")))
	assert.False(t, excl.Allow(mustParseVersion(t, "1.2")))
	// versions the index doesn't serve at all are not the exclusion's business
	assert.True(t, excl.Allow(mustParseVersion(t, "9.9")))
}

func TestSelectSkipsYanked(t *testing.T) {
	t.Parallel()
	links := []pep503.FileLink{
		{Link: pep503.Link{Text: "frob-1.0.tar.gz"}},
		{Link: pep503.Link{Text: "frob-1.1.tar.gz"}},
		{Link: pep503.Link{Text: "frob-1.2.tar.gz",
			DataAttrs: map[string]string{"data-yanked": "broken"}}},
	}
	candidates := []pep440.Version{
		mustParseVersion(t, "1.0"),
		mustParseVersion(t, "1.1"),
		mustParseVersion(t, "1.2"),
	}
	excl := pep592.ExcludeYanked(links)

	spec, err := pep440.ParseSpecifier(">=1.0")
	require.NoError(t, err)
	got := spec.Select(candidates, excl)
	require.NotNil(t, got)
	assert.Equal(t, "1.1", got.String())

	// "when the only version that can be used is a yanked version, then it may be used"
	spec, err = pep440.ParseSpecifier("==1.2")
	require.NoError(t, err)
	got = spec.Select(candidates, excl)
	require.NotNil(t, got)
	assert.Equal(t, "1.2", got.String())
}
