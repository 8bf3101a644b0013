// Package registry reads the signed package index of a Hex compatible
// repository: names, versions, per package releases and release tarballs.
//
// The signed endpoints respond with a gzipped, protobuf encoded and RSA
// signed document. The reader gunzips, verifies the signature against the
// configured repository key and decodes the typed resource. Conditional
// requests are supported through the ETag option; a 304 response is
// passed through untouched so callers can keep their previous value.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hexpm/hexgo"
	"github.com/hexpm/hexgo/tarball"
)

// Response is the raw outcome of a registry request. Body holds the
// undecoded response body; it is empty on 304.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ErrChecksumMismatch happens when a downloaded tarball's SHA256 differs
// from the checksum the registry declares for the release.
type ErrChecksumMismatch struct {
	Expected []byte
	Actual   []byte
}

func (e ErrChecksumMismatch) Error() string {
	return fmt.Sprintf("tarball checksum mismatch: expected %X, got %X", e.Expected, e.Actual)
}

// NamesResult is the outcome of GetNames. Names is nil unless the
// response was a 200.
type NamesResult struct {
	Response
	Names *Names
}

// VersionsResult is the outcome of GetVersions.
type VersionsResult struct {
	Response
	Versions *Versions
}

// PackageResult is the outcome of GetPackage.
type PackageResult struct {
	Response
	Package *Package
}

// GetNames fetches and decodes the package name listing.
func GetNames(ctx context.Context, cfg *hexgo.Config) (*NamesResult, error) {
	resp, err := getSigned(ctx, cfg, "/names")
	if err != nil {
		return nil, err
	}
	result := &NamesResult{Response: resp.Response}
	if resp.payload != nil {
		result.Names = new(Names)
		if err := result.Names.Unmarshal(resp.payload); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetVersions fetches and decodes the versions listing.
func GetVersions(ctx context.Context, cfg *hexgo.Config) (*VersionsResult, error) {
	resp, err := getSigned(ctx, cfg, "/versions")
	if err != nil {
		return nil, err
	}
	result := &VersionsResult{Response: resp.Response}
	if resp.payload != nil {
		result.Versions = new(Versions)
		if err := result.Versions.Unmarshal(resp.payload); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetPackage fetches and decodes the release list of a single package.
func GetPackage(ctx context.Context, cfg *hexgo.Config, name string) (*PackageResult, error) {
	resp, err := getSigned(ctx, cfg, "/packages/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	result := &PackageResult{Response: resp.Response}
	if resp.payload != nil {
		result.Package = new(Package)
		if err := result.Package.Unmarshal(resp.payload); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetTarball fetches a release tarball. The body is returned verbatim:
// the outer tarball is not gzipped and carries its own checksums. Callers
// are expected to compare its SHA256 against the checksum from the
// package resource, for example with VerifyTarball.
func GetTarball(ctx context.Context, cfg *hexgo.Config, name, version string) (*Response, error) {
	resp, err := get(ctx, cfg, fmt.Sprintf("/tarballs/%s-%s.tar", name, version))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// VerifyTarball compares the SHA256 of downloaded tarball bytes against
// the checksum declared by the registry.
func VerifyTarball(data []byte, declared []byte) error {
	actual := tarball.Checksum(data)
	if !bytes.Equal(actual, declared) {
		return ErrChecksumMismatch{Expected: declared, Actual: actual}
	}
	return nil
}

// signedResponse carries the verified payload next to the raw response.
// payload is nil for every status except 200.
type signedResponse struct {
	Response
	payload []byte
}

// getSigned runs the fetch, gunzip, verify pipeline of the signed index
// endpoints. Statuses other than 200 pass through undecoded.
func getSigned(ctx context.Context, cfg *hexgo.Config, path string) (*signedResponse, error) {
	resp, err := get(ctx, cfg, path)
	if err != nil {
		return nil, err
	}
	result := &signedResponse{Response: *resp}
	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	body, err := tarball.Gunzip(resp.Body, 0)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	payload, err := DecodeSigned(body, cfg.RepoPublicKey, cfg.ShouldVerify())
	if err != nil {
		return nil, err
	}
	result.payload = payload
	return result, nil
}

func get(ctx context.Context, cfg *hexgo.Config, path string) (*Response, error) {
	cfg = hexgo.WithDefaults(cfg)
	uri := strings.TrimSuffix(cfg.RepoURI, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range requestHeaders(cfg) {
		req.Header.Set(key, value)
	}

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint: errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// requestHeaders builds the outgoing headers from the configuration:
// authorization when an API key is set, if-none-match when an ETag is
// set, then any user supplied headers merged last.
func requestHeaders(cfg *hexgo.Config) map[string]string {
	headers := make(map[string]string)
	if cfg.APIKey != "" {
		headers["authorization"] = cfg.APIKey
	}
	if cfg.ETag != "" {
		headers["if-none-match"] = cfg.ETag
	}
	for key, value := range cfg.HTTPHeaders {
		headers[key] = value
	}
	return headers
}
