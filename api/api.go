// Package api is a client for the registry's REST API. Request and
// response bodies use the same text term format as package metadata;
// binary uploads such as tarballs are sent as octet streams.
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hexpm/hexgo"
	"github.com/hexpm/hexgo/metadata"
)

// ErlangContentType is the media type of term encoded request and
// response bodies.
const ErlangContentType = "application/vnd.hex+erlang"

// Response is the outcome of an API request. Decoded holds the parsed
// term body when the response carried one.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Decoded    map[string]any
}

// Get issues a GET against an API path.
func Get(ctx context.Context, cfg *hexgo.Config, path string, query url.Values) (*Response, error) {
	return request(ctx, cfg, http.MethodGet, path, query, nil, "")
}

// Post issues a POST with a term encoded body built from the given
// mapping.
func Post(ctx context.Context, cfg *hexgo.Config, path string, body map[string]any) (*Response, error) {
	encoded, err := metadata.Encode(body)
	if err != nil {
		return nil, err
	}
	return request(ctx, cfg, http.MethodPost, path, nil, encoded, ErlangContentType)
}

// PostRaw issues a POST with a verbatim body, for binary uploads.
func PostRaw(ctx context.Context, cfg *hexgo.Config, path string, body []byte, contentType string) (*Response, error) {
	return request(ctx, cfg, http.MethodPost, path, nil, body, contentType)
}

// Delete issues a DELETE against an API path.
func Delete(ctx context.Context, cfg *hexgo.Config, path string) (*Response, error) {
	return request(ctx, cfg, http.MethodDelete, path, nil, nil, "")
}

func request(ctx context.Context, cfg *hexgo.Config, method, path string, query url.Values, body []byte, contentType string) (*Response, error) {
	cfg = hexgo.WithDefaults(cfg)

	uri := strings.TrimSuffix(cfg.APIURI, "/") + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", ErlangContentType)
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	if cfg.APIKey != "" {
		req.Header.Set("authorization", cfg.APIKey)
	}
	if cfg.ETag != "" {
		req.Header.Set("if-none-match", cfg.ETag)
	}
	for key, value := range cfg.HTTPHeaders {
		req.Header.Set(key, value)
	}

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint: errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	result := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("content-type"), ErlangContentType) {
		decoded, err := metadata.Decode(raw)
		if err != nil {
			return nil, err
		}
		result.Decoded = decoded
	}
	return result, nil
}

// joinPath builds an API path from escaped segments.
func joinPath(segments ...string) string {
	var sb strings.Builder
	for _, segment := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(segment))
	}
	return sb.String()
}
