package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexpm/hexgo/tarball"
)

func chdir(t *testing.T, dir string) {
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestDoPackageAndUnpack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "foo.erl"), []byte("-module(foo)."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hex.yaml"), []byte(`
name: foo
version: 1.0.0
files:
- src/*.erl
`), 0o644))
	chdir(t, dir)

	require.NoError(t, doPackage("hex.yaml", ""))

	data, err := os.ReadFile("foo-1.0.0.tar")
	require.NoError(t, err)
	unpacked, err := tarball.Unpack(data, tarball.InMemory)
	require.NoError(t, err)
	assert.Equal(t, "foo", unpacked.Metadata["name"])
	assert.Equal(t, []any{"src/foo.erl"}, unpacked.Metadata["files"])
	assert.Equal(t, []byte("-module(foo)."), unpacked.Contents["src/foo.erl"])

	require.NoError(t, doUnpack("foo-1.0.0.tar", "out"))
	content, err := os.ReadFile(filepath.Join("out", "src", "foo.erl"))
	require.NoError(t, err)
	assert.Equal(t, "-module(foo).", string(content))
}
