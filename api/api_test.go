package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexpm/hexgo"
	"github.com/hexpm/hexgo/internal/fixture"
	"github.com/hexpm/hexgo/metadata"
)

const apiURI = "https://api.test/api"

func termBody(t *testing.T, body map[string]any) []byte {
	t.Helper()
	encoded, err := metadata.Encode(body)
	require.NoError(t, err)
	return encoded
}

func testConfig(routes []fixture.Route) *hexgo.Config {
	return &hexgo.Config{
		APIURI: apiURI,
		Client: &fixture.Client{Routes: routes},
	}
}

func TestPackageGet(t *testing.T) {
	cfg := testConfig([]fixture.Route{{
		Method: http.MethodGet,
		Prefix: apiURI + "/packages/ecto",
		Header: map[string]string{"content-type": ErlangContentType},
		Body:   termBody(t, map[string]any{"name": "ecto"}),
	}})

	resp, err := PackageGet(context.Background(), cfg, "ecto")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ecto", resp.Decoded["name"])
}

func TestPackageGetNotFound(t *testing.T) {
	cfg := testConfig([]fixture.Route{{
		Method: http.MethodGet,
		Prefix: apiURI + "/packages/nonexisting",
		Status: http.StatusNotFound,
		Header: map[string]string{"content-type": ErlangContentType},
		Body: termBody(t, map[string]any{
			"message": "Page not found",
			"status":  404,
		}),
	}})

	resp, err := PackageGet(context.Background(), cfg, "nonexisting")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Page not found", resp.Decoded["message"])
	assert.Equal(t, int64(404), resp.Decoded["status"])
}

func TestKeyListRequiresAuth(t *testing.T) {
	routes := []fixture.Route{{
		Method:      http.MethodGet,
		Prefix:      apiURI + "/keys",
		RequireAuth: true,
		Header:      map[string]string{"content-type": ErlangContentType},
		Body:        termBody(t, map[string]any{"name": "key"}),
	}}

	resp, err := KeyList(context.Background(), testConfig(routes))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cfg := testConfig(routes)
	cfg.APIKey = "secret"
	resp, err = KeyList(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "key", resp.Decoded["name"])
}

func TestReleasePublish(t *testing.T) {
	cfg := testConfig([]fixture.Route{{
		Method:      http.MethodPost,
		Prefix:      apiURI + "/publish",
		RequireAuth: true,
		Status:      http.StatusCreated,
	}})
	cfg.APIKey = "secret"

	resp, err := ReleasePublish(context.Background(), cfg, []byte("tarball bytes"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestJoinPathEscapesSegments(t *testing.T) {
	assert.Equal(t, "/packages/foo%2Fbar/releases/1.0.0", joinPath("packages", "foo/bar", "releases", "1.0.0"))
}

func TestPackageSearchQuery(t *testing.T) {
	var gotURI string
	cfg := &hexgo.Config{
		APIURI: apiURI,
		Client: clientFunc(func(req *http.Request) (*http.Response, error) {
			gotURI = req.URL.String()
			return (&fixture.Client{Routes: []fixture.Route{{Prefix: ""}}}).Do(req)
		}),
	}

	_, err := PackageSearch(context.Background(), cfg, "ecto search", 2)
	require.NoError(t, err)
	assert.Equal(t, apiURI+"/packages?page=2&search=ecto+search", gotURI)
}

type clientFunc func(req *http.Request) (*http.Response, error)

func (f clientFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}
