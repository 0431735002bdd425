// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep503

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/datawire/reqtool/pkg/htmlutil"
	"github.com/datawire/reqtool/pkg/python"
	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pypa/bdist"
	"github.com/datawire/reqtool/pkg/python/pypa/sdist"
)

type Client struct {
	BaseURL    string          // defaults to PyPIBaseURL
	HTTPClient *http.Client    // defaults to http.DefaultClient
	UserAgent  string          // defaults to this package's import path
	Python     *pep440.Version // if set, hide files whose data-requires-python excludes it
	HTMLHook   func(context.Context, *html.Node) error
}

const PyPIBaseURL = "https://pypi.org/simple/"

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = PyPIBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/datawire/reqtool/pkg/python/pep503"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

func (c Client) get(ctx context.Context, requestURL string) (_ *url.URL, _ []byte, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()
	c.fillDefaults()

	// 1. Build the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	// 2. Do the networking
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, nil, err
	}

	// 3. Validate the result
	if resp.StatusCode != http.StatusOK {
		return nil, nil, &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}
	if u, err := url.Parse(requestURL); err == nil && u.Fragment != "" {
		if keyvals, err := url.ParseQuery(u.Fragment); err == nil {
			for algName, vals := range keyvals {
				hasher, err := python.HashlibNew(algName)
				if err != nil {
					// PEP 503 allows any hashlib algorithm; skip ones we
					// don't know rather than failing the download.
					continue
				}
				for _, exp := range vals {
					hasher.Reset()
					_, _ = hasher.Write(content)
					act := hex.EncodeToString(hasher.Sum(nil))
					if !strings.EqualFold(act, exp) {
						//nolint:lll // error string
						return nil, nil, fmt.Errorf("checksum mismatch: %s: expected=%s actual=%s",
							algName, exp, act)
					}
				}
			}
		}
	}

	return resp.Request.URL, content, nil
}

type Link struct {
	Text      string
	HRef      string
	DataAttrs map[string]string
}

func (c Client) getHTML5Index(ctx context.Context, requestURL string) ([]Link, error) {
	location, content, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	if c.HTMLHook != nil {
		if err := c.HTMLHook(ctx, doc); err != nil {
			return nil, err
		}
	}

	var links []Link
	if err := htmlutil.VisitHTML(doc, nil, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "a" {
			return nil
		}
		link := Link{
			DataAttrs: make(map[string]string),
		}
		for _, attr := range node.Attr {
			switch {
			case attr.Namespace == "" && attr.Key == "href":
				href, err := location.Parse(attr.Val)
				if err != nil {
					return err
				}
				link.HRef = href.String()
			case attr.Namespace == "" && strings.HasPrefix(attr.Key, "data-"):
				link.DataAttrs[attr.Key] = attr.Val
			}
		}
		link.Text = htmlutil.ElementText(node)
		links = append(links, link)
		return nil
	}); err != nil {
		return nil, err
	}

	return links, nil
}

type ProjectLink struct {
	client Client
	Link
}

// ListProjects lists every project that the index serves.  On pypi.org that is a large page;
// prefer ListProjectFiles when the project name is known.
func (c Client) ListProjects(ctx context.Context) ([]ProjectLink, error) {
	c.fillDefaults()
	rawLinks, err := c.getHTML5Index(ctx, c.BaseURL)
	if err != nil {
		return nil, err
	}
	links := make([]ProjectLink, 0, len(rawLinks))
	for _, link := range rawLinks {
		links = append(links, ProjectLink{
			client: c,
			Link:   link,
		})
	}
	return links, nil
}

type FileLink struct {
	client Client
	Link
}

func (l ProjectLink) ListFiles(ctx context.Context) ([]FileLink, error) {
	rawLinks, err := l.client.getHTML5Index(ctx, l.HRef)
	if err != nil {
		return nil, err
	}
	links := make([]FileLink, 0, len(rawLinks))
	for _, link := range rawLinks {
		links = append(links, FileLink{
			client: l.client,
			Link:   link,
		})
	}
	return links, nil
}

func (c Client) ListProjectFiles(ctx context.Context, projname string) ([]FileLink, error) {
	if err := ValidateName(projname); err != nil {
		return nil, err
	}

	c.fillDefaults()
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, NormalizeName(projname)) + "/"
	rawLinks, err := c.getHTML5Index(ctx, u.String())
	if err != nil {
		return nil, err
	}
	links := make([]FileLink, 0, len(rawLinks))
	for _, link := range rawLinks {
		if c.Python != nil {
			if reqPy := link.DataAttrs["data-requires-python"]; reqPy != "" {
				spec, err := pep440.ParseSpecifier(reqPy)
				if err == nil && !spec.Match(*c.Python) {
					continue
				}
			}
		}

		links = append(links, FileLink{
			client: c,
			Link:   link,
		})
	}
	return links, nil
}

// Version returns the distribution version of the file, as parsed from the file name.
func (l FileLink) Version() (*pep440.Version, error) {
	if data, err := bdist.ParseFilename(l.Text); err == nil {
		return &data.Version, nil
	}
	if data, err := sdist.ParseFilename(l.Text); err == nil {
		return &data.Version, nil
	}
	return nil, fmt.Errorf("cannot determine version from filename: %q", l.Text)
}

// Versions returns the distinct versions among a list of files, sorted oldest to newest.  Files
// with names that no known naming convention can parse (historical uploads can be quite creative)
// are skipped, not errors.
func Versions(files []FileLink) []pep440.Version {
	seen := make(map[string]struct{}, len(files))
	ret := make([]pep440.Version, 0, len(files))
	for _, file := range files {
		ver, err := file.Version()
		if err != nil {
			continue
		}
		key := ver.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ret = append(ret, *ver)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Cmp(ret[j]) < 0
	})
	return ret
}

// ProjectVersions lists the distinct versions that the index serves files for, sorted oldest to
// newest, along with the file links themselves (callers usually go on to inspect the files for
// yanks or compatibility tags).
func (c Client) ProjectVersions(ctx context.Context, projname string) ([]pep440.Version, []FileLink, error) {
	files, err := c.ListProjectFiles(ctx, projname)
	if err != nil {
		return nil, nil, err
	}
	return Versions(files), files, nil
}

func (l FileLink) Get(ctx context.Context) ([]byte, error) {
	_, content, err := l.client.get(ctx, l.HRef)
	return content, err
}

var ErrNoSignature = errors.New("no signature")

// sigURL is the URL of the file's detached GPG signature: "the same as the file's, with .asc
// appended", and without the file URL's checksum fragment (which would never match the
// signature's own content).
func (l FileLink) sigURL() (string, error) {
	u, err := url.Parse(l.HRef)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.Path += ".asc"
	return u.String(), nil
}

func (l FileLink) GetSignature(ctx context.Context) ([]byte, error) {
	sigURL, err := l.sigURL()
	if err != nil {
		return nil, err
	}
	switch l.DataAttrs["data-gpg-sig"] {
	case "false":
		return nil, ErrNoSignature
	case "true":
		_, content, err := l.client.get(ctx, sigURL)
		return content, err
	default:
		_, content, err := l.client.get(ctx, sigURL)
		var httpErr *HTTPError
		if err != nil && errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			err = ErrNoSignature
		}
		return content, err
	}
}
