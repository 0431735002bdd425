package pep503_test

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pep503"
)

const frobTarball = "not actually a tarball\n"

func newTestIndex(t *testing.T) *httptest.Server {
	t.Helper()
	sum := sha256.Sum256([]byte(frobTarball))
	mux := http.NewServeMux()
	mux.HandleFunc("/simple/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!DOCTYPE html><html><body>`+
			`<a href="frob/">frob</a>`+
			`</body></html>`)
	})
	mux.HandleFunc("/simple/frob/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!DOCTYPE html><html><body>`+
			`<a href="../../packages/frob-1.0.tar.gz#sha256=`+hex.EncodeToString(sum[:])+`">frob-1.0.tar.gz</a>`+
			`<a href="../../packages/frob-1.1-py3-none-any.whl" data-requires-python=">=3.7">frob-1.1-py3-none-any.whl</a>`+
			`<a href="../../packages/frob-1.2rc1.tar.gz" data-yanked="bad release">frob-1.2rc1.tar.gz</a>`+
			`</body></html>`)
	})
	mux.HandleFunc("/packages/frob-1.0.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, frobTarball)
	})
	mux.HandleFunc("/packages/frob-1.0.tar.gz.asc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "-----BEGIN PGP SIGNATURE-----\n")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestListProjectFiles(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	server := newTestIndex(t)

	client := pep503.Client{
		BaseURL:    server.URL + "/simple/",
		HTTPClient: server.Client(),
	}

	files, err := client.ListProjectFiles(ctx, "Frob")
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "frob-1.0.tar.gz", files[0].Text)
	assert.Equal(t, server.URL+"/packages/frob-1.0.tar.gz#sha256="+func() string {
		sum := sha256.Sum256([]byte(frobTarball))
		return hex.EncodeToString(sum[:])
	}(), files[0].HRef)

	assert.Equal(t, ">=3.7", files[1].DataAttrs["data-requires-python"])
	assert.Equal(t, "bad release", files[2].DataAttrs["data-yanked"])

	ver, err := files[1].Version()
	require.NoError(t, err)
	assert.Equal(t, "1.1", ver.String())
}

func TestListProjects(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	server := newTestIndex(t)

	client := pep503.Client{
		BaseURL:    server.URL + "/simple/",
		HTTPClient: server.Client(),
	}

	projects, err := client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "frob", projects[0].Text)

	files, err := projects[0].ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestListProjectFilesBadName(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	client := pep503.Client{BaseURL: "http://localhost:1/simple/"}
	_, err := client.ListProjectFiles(ctx, "frob nicate")
	assert.EqualError(t, err, `illegal character in project name: "frob nicate": ' '`)
}

func TestRequiresPythonFilter(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	server := newTestIndex(t)

	py36, err := pep440.ParseVersion("3.6.9")
	require.NoError(t, err)

	client := pep503.Client{
		BaseURL:    server.URL + "/simple/",
		HTTPClient: server.Client(),
		Python:     py36,
	}

	files, err := client.ListProjectFiles(ctx, "frob")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "frob-1.0.tar.gz", files[0].Text)
	assert.Equal(t, "frob-1.2rc1.tar.gz", files[1].Text)
}

func TestProjectVersions(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	server := newTestIndex(t)

	client := pep503.Client{
		BaseURL:    server.URL + "/simple/",
		HTTPClient: server.Client(),
	}

	vers, files, err := client.ProjectVersions(ctx, "frob")
	require.NoError(t, err)
	assert.Len(t, files, 3)
	strs := make([]string, 0, len(vers))
	for _, ver := range vers {
		strs = append(strs, ver.String())
	}
	assert.Equal(t, []string{"1.0", "1.1", "1.2rc1"}, strs)
}

func TestChecksumVerification(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	server := newTestIndex(t)

	client := pep503.Client{
		BaseURL:    server.URL + "/simple/",
		HTTPClient: server.Client(),
	}

	files, err := client.ListProjectFiles(ctx, "frob")
	require.NoError(t, err)
	require.Len(t, files, 3)

	// files[0] carries a correct #sha256= fragment.
	content, err := files[0].Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, frobTarball, string(content))

	// Fetching the same URL with a corrupted fragment must fail.
	bogus := files[0]
	bogus.HRef = server.URL + "/packages/frob-1.0.tar.gz#sha256=" + hex.EncodeToString(make([]byte, sha256.Size))
	_, err = bogus.Get(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch: sha256:")
}

func TestGetSignature(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	server := newTestIndex(t)

	client := pep503.Client{
		BaseURL:    server.URL + "/simple/",
		HTTPClient: server.Client(),
	}

	files, err := client.ListProjectFiles(ctx, "frob")
	require.NoError(t, err)
	require.Len(t, files, 3)

	// files[0] has a detached signature at <url>.asc; the checksum fragment must not be
	// applied to it.
	sig, err := files[0].GetSignature(ctx)
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN PGP SIGNATURE-----\n", string(sig))

	// files[2] has no <url>.asc, which the server reports as 404.
	_, err = files[2].GetSignature(ctx)
	assert.ErrorIs(t, err, pep503.ErrNoSignature)
}
