// Package hexgo is a client library for Hex-compatible package registries.
// It builds and unpacks package tarballs, reads the signed registry index
// and talks to the registry's REST API.
package hexgo

import (
	"net/http"

	"dario.cat/mergo"
	"github.com/AlekSi/pointer"
)

// HTTPClient is the transport seam used by the registry and API clients.
// *http.Client satisfies it; tests plug in canned implementations.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config carries the per-call options recognized by the registry and API
// clients. A zero Config is usable after WithDefaults.
type Config struct {
	// Client performs HTTP requests. Defaults to http.DefaultClient.
	Client HTTPClient

	// RepoURI is the base URL for signed-index and tarball downloads.
	RepoURI string

	// APIURI is the base URL for the REST API.
	APIURI string

	// RepoPublicKey is the PEM-encoded RSA key used to verify signed
	// registry payloads.
	RepoPublicKey []byte

	// Verify gates signature verification of registry payloads. Defaults
	// to true; disabling it is for development and tests only.
	Verify *bool

	// ETag, when set, is sent as if-none-match on registry requests.
	ETag string

	// APIKey, when set, is sent as the authorization header.
	APIKey string

	// HTTPHeaders are merged last into every outgoing request.
	HTTPHeaders map[string]string
}

// HexPMRepoURI and HexPMAPIURI are the endpoints of the public hex.pm
// registry.
const (
	HexPMRepoURI = "https://repo.hex.pm"
	HexPMAPIURI  = "https://hex.pm/api"
)

// HexPMPublicKey is the public key of the hex.pm repository.
const HexPMPublicKey = `-----BEGIN PUBLIC KEY-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEApqREcFDt5vV21JVe2QNB
Edvzk6w36aNFhVGWN5toNJRjRJ6m4hIuG4KaXtDWVLjnvct6MYMfqhC79HAGwyF+
IqR6Q6a5bbFSsImgBJwz1oadoVKD6ZNetAuCIK84cjMrEFRkELtEIPNHblCzUkkM
3rS9+DPlnfG8hBvGi6tvQIuZmXGCxF/73hU0/MyGhbmEjIKRtG6b0sJYKelRLTPW
XgK7s5pESgiwf2YC/2MGDXjAJfpfCd0RpLdvd4eRiXtVlE9qO9bND94E7PgQ/xqZ
J1i2xWFndWa6nfFnRxZmCStCOZWYYPlaxr+FZceFbpMwzTNs4g3d4tLNUcbKAIH4
0wIDAQAB
-----END PUBLIC KEY-----`

// NewConfig returns a Config pointing at the public hex.pm registry.
func NewConfig() *Config {
	return WithDefaults(&Config{})
}

// WithDefaults fills empty fields of the given Config with the hex.pm
// defaults and returns it.
func WithDefaults(cfg *Config) *Config {
	defaults := Config{
		Client:        http.DefaultClient,
		RepoURI:       HexPMRepoURI,
		APIURI:        HexPMAPIURI,
		RepoPublicKey: []byte(HexPMPublicKey),
		Verify:        pointer.ToBool(true),
	}
	// mergo fills the empty fields of cfg. It merges through pointers, which
	// would overwrite an explicit Verify of false with true, so Verify is set
	// aside during the merge and kept when the caller set it.
	verify := cfg.Verify
	cfg.Verify = nil
	if err := mergo.Merge(cfg, defaults); err != nil {
		// only fails on invalid arguments, which cannot happen here
		panic(err)
	}
	if verify != nil {
		cfg.Verify = verify
	}
	return cfg
}

// ShouldVerify reports whether signed payloads must be verified.
func (c *Config) ShouldVerify() bool {
	return c.Verify == nil || *c.Verify
}
