package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hexpm/hexgo"
)

// PackageGet fetches a package resource.
func PackageGet(ctx context.Context, cfg *hexgo.Config, name string) (*Response, error) {
	return Get(ctx, cfg, joinPath("packages", name), nil)
}

// PackageSearch searches packages. Page numbering starts at 1; zero means
// the server default.
func PackageSearch(ctx context.Context, cfg *hexgo.Config, search string, page int) (*Response, error) {
	query := url.Values{"search": {search}}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	return Get(ctx, cfg, "/packages", query)
}

// ReleaseGet fetches a single release of a package.
func ReleaseGet(ctx context.Context, cfg *hexgo.Config, name, version string) (*Response, error) {
	return Get(ctx, cfg, joinPath("packages", name, "releases", version), nil)
}

// ReleasePublish uploads a package tarball.
func ReleasePublish(ctx context.Context, cfg *hexgo.Config, tarball []byte) (*Response, error) {
	return PostRaw(ctx, cfg, "/publish", tarball, "application/octet-stream")
}

// ReleaseRetire marks a release as retired.
func ReleaseRetire(ctx context.Context, cfg *hexgo.Config, name, version string, params map[string]any) (*Response, error) {
	return Post(ctx, cfg, joinPath("packages", name, "releases", version, "retire"), params)
}

// ReleaseUnretire removes the retirement mark from a release.
func ReleaseUnretire(ctx context.Context, cfg *hexgo.Config, name, version string) (*Response, error) {
	return Delete(ctx, cfg, joinPath("packages", name, "releases", version, "retire"))
}

// DocsPublish uploads a documentation tarball for a release.
func DocsPublish(ctx context.Context, cfg *hexgo.Config, name, version string, docs []byte) (*Response, error) {
	return PostRaw(ctx, cfg, joinPath("packages", name, "releases", version, "docs"), docs, "application/octet-stream")
}

// DocsDelete removes the documentation of a release.
func DocsDelete(ctx context.Context, cfg *hexgo.Config, name, version string) (*Response, error) {
	return Delete(ctx, cfg, joinPath("packages", name, "releases", version, "docs"))
}

// UserGet fetches a user by username.
func UserGet(ctx context.Context, cfg *hexgo.Config, username string) (*Response, error) {
	return Get(ctx, cfg, joinPath("users", username), nil)
}

// MeGet fetches the user owning the configured API key.
func MeGet(ctx context.Context, cfg *hexgo.Config) (*Response, error) {
	return Get(ctx, cfg, "/users/me", nil)
}

// KeyList lists the API keys of the authenticated user.
func KeyList(ctx context.Context, cfg *hexgo.Config) (*Response, error) {
	return Get(ctx, cfg, "/keys", nil)
}

// KeyGet fetches a single API key by name.
func KeyGet(ctx context.Context, cfg *hexgo.Config, name string) (*Response, error) {
	return Get(ctx, cfg, joinPath("keys", name), nil)
}

// KeyAdd creates an API key with the given permissions, for example
// [{"domain": "api", "resource": "read"}].
func KeyAdd(ctx context.Context, cfg *hexgo.Config, name string, permissions []map[string]any) (*Response, error) {
	perms := make([]any, len(permissions))
	for i, p := range permissions {
		perms[i] = p
	}
	return Post(ctx, cfg, "/keys", map[string]any{
		"name":        name,
		"permissions": perms,
	})
}

// KeyDelete revokes an API key by name.
func KeyDelete(ctx context.Context, cfg *hexgo.Config, name string) (*Response, error) {
	return Delete(ctx, cfg, joinPath("keys", name))
}

// OwnerList lists the owners of a package.
func OwnerList(ctx context.Context, cfg *hexgo.Config, name string) (*Response, error) {
	return Get(ctx, cfg, joinPath("packages", name, "owners"), nil)
}

// OwnerAdd adds a user as owner of a package.
func OwnerAdd(ctx context.Context, cfg *hexgo.Config, name, owner string) (*Response, error) {
	return Post(ctx, cfg, joinPath("packages", name, "owners", owner), map[string]any{})
}

// OwnerDelete removes a user from the owners of a package.
func OwnerDelete(ctx context.Context, cfg *hexgo.Config, name, owner string) (*Response, error) {
	return Delete(ctx, cfg, joinPath("packages", name, "owners", owner))
}
