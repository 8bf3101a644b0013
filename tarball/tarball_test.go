package tarball

import (
	"bytes"
	"crypto/sha256"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUnpackRoundTrip(t *testing.T) {
	pkg, err := Create(map[string]any{"name": "ecto"}, nil)
	require.NoError(t, err)

	entries, err := readTar(pkg.Data)
	require.NoError(t, err)
	require.ElementsMatch(t,
		[]string{"VERSION", "CHECKSUM", "metadata.config", "contents.tar.gz"},
		keysOf(entries))
	assert.Equal(t, Version, string(entries["VERSION"]))

	unpacked, err := Unpack(pkg.Data, InMemory)
	require.NoError(t, err)
	assert.Empty(t, unpacked.Contents)
	assert.Equal(t, map[string]any{
		"name":        "ecto",
		"build_tools": []any{},
	}, unpacked.Metadata)
	assert.Equal(t, pkg.OuterChecksum, unpacked.OuterChecksum)
	assert.Equal(t, pkg.InnerChecksum, unpacked.InnerChecksum)
}

func TestCreateIsReproducible(t *testing.T) {
	meta := map[string]any{"name": "foo", "version": "1.0.0"}
	files := []File{NewFile("src/foo.erl", []byte("-module(foo)."))}

	first, err := Create(meta, files)
	require.NoError(t, err)
	second, err := Create(meta, files)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.OuterChecksum, second.OuterChecksum)
}

func TestRoundTripContents(t *testing.T) {
	meta := map[string]any{"name": "foo", "version": "1.0.0"}
	files := []File{
		NewFile("src/foo.erl", []byte("-module(foo).")),
		NewFile("README.md", []byte("# foo\n")),
	}

	pkg, err := Create(meta, files)
	require.NoError(t, err)
	unpacked, err := Unpack(pkg.Data, InMemory)
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"src/foo.erl": []byte("-module(foo)."),
		"README.md":   []byte("# foo\n"),
	}, unpacked.Contents)
	assert.Equal(t, "foo", unpacked.Metadata["name"])
}

func TestChecksums(t *testing.T) {
	pkg, err := Create(map[string]any{"name": "foo"}, nil)
	require.NoError(t, err)

	outer := sha256.Sum256(pkg.Data)
	assert.Equal(t, outer[:], pkg.OuterChecksum)

	entries, err := readTar(pkg.Data)
	require.NoError(t, err)
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write(entries["metadata.config"])
	h.Write(entries["contents.tar.gz"])
	assert.Equal(t, h.Sum(nil), pkg.InnerChecksum)
	assert.Equal(t, []byte(EncodeChecksum(pkg.InnerChecksum)), entries["CHECKSUM"])
}

func TestUnpackTooBig(t *testing.T) {
	_, err := Unpack(make([]byte, MaxSize+1), InMemory)
	require.ErrorIs(t, err, ErrTooBig)
}

func TestCreateOuterTooBig(t *testing.T) {
	// incompressible payload just above the outer cap
	data := make([]byte, MaxSize+1024)
	rng := rand.New(rand.NewSource(42))
	_, _ = rng.Read(data)

	_, err := Create(map[string]any{"name": "foo"}, []File{NewFile("blob", data)})
	require.ErrorIs(t, err, ErrTooBig)
}

func TestCreateInnerTooBig(t *testing.T) {
	data := bytes.Repeat([]byte{0}, MaxUncompressedSize+1)
	_, err := Create(map[string]any{"name": "foo"}, []File{NewFile("blob", data)})
	require.ErrorIs(t, err, ErrTooBig)
}

func TestUnpackEmpty(t *testing.T) {
	empty, err := writeTar(nil)
	require.NoError(t, err)
	_, err = Unpack(empty, InMemory)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestUnpackMissingFile(t *testing.T) {
	data := repack(t, func(entries map[string][]byte) {
		delete(entries, "metadata.config")
	})

	var missing ErrMissingFiles
	_, err := Unpack(data, InMemory)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"metadata.config"}, missing.Files)
}

func TestUnpackInvalidFile(t *testing.T) {
	data := repack(t, func(entries map[string][]byte) {
		entries["extra"] = []byte("nope")
	})

	var invalid ErrInvalidFiles
	_, err := Unpack(data, InMemory)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"extra"}, invalid.Files)
}

func TestUnpackInvalidFileWinsOverMissing(t *testing.T) {
	data := repack(t, func(entries map[string][]byte) {
		delete(entries, "metadata.config")
		entries["extra"] = []byte("nope")
	})

	var invalid ErrInvalidFiles
	_, err := Unpack(data, InMemory)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"extra"}, invalid.Files)
}

func TestUnpackBadVersion(t *testing.T) {
	data := repack(t, func(entries map[string][]byte) {
		entries["VERSION"] = []byte("2")
	})

	var bad ErrBadVersion
	_, err := Unpack(data, InMemory)
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "2", bad.Version)
}

func TestUnpackInvalidInnerChecksum(t *testing.T) {
	data := repack(t, func(entries map[string][]byte) {
		entries["CHECKSUM"] = []byte("not a checksum")
	})

	_, err := Unpack(data, InMemory)
	require.ErrorIs(t, err, ErrInvalidInnerChecksum)
}

func TestUnpackInnerChecksumMismatch(t *testing.T) {
	data := repack(t, func(entries map[string][]byte) {
		tampered := append([]byte(nil), entries["contents.tar.gz"]...)
		tampered[len(tampered)-1] ^= 1
		entries["contents.tar.gz"] = tampered
	})

	var mismatch ErrInnerChecksumMismatch
	_, err := Unpack(data, InMemory)
	require.ErrorAs(t, err, &mismatch)
	assert.NotEqual(t, mismatch.Expected, mismatch.Actual)
}

func TestUnpackToDir(t *testing.T) {
	meta := map[string]any{"name": "foo", "version": "1.0.0"}
	pkg, err := Create(meta, []File{
		NewFile("src/foo.erl", []byte("-module(foo).")),
	})
	require.NoError(t, err)

	dest := t.TempDir()
	unpacked, err := Unpack(pkg.Data, dest)
	require.NoError(t, err)
	assert.Nil(t, unpacked.Contents)

	content, err := os.ReadFile(filepath.Join(dest, "src", "foo.erl"))
	require.NoError(t, err)
	assert.Equal(t, "-module(foo).", string(content))

	metaBytes, err := os.ReadFile(filepath.Join(dest, "hex_metadata.config"))
	require.NoError(t, err)
	assert.Contains(t, string(metaBytes), `{<<"name">>,<<"foo">>}.`)
}

func TestCreateFromDisk(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "foo.erl")
	require.NoError(t, os.WriteFile(source, []byte("-module(foo)."), 0o644))
	link := filepath.Join(dir, "link.erl")
	require.NoError(t, os.Symlink("foo.erl", link))

	pkg, err := Create(map[string]any{"name": "foo"}, []File{
		{Name: "src/foo.erl", Source: source},
		{Name: "src/link.erl", Source: link},
	})
	require.NoError(t, err)

	unpacked, err := Unpack(pkg.Data, InMemory)
	require.NoError(t, err)
	assert.Equal(t, []byte("-module(foo)."), unpacked.Contents["src/foo.erl"])
	// symlinks are preserved, not dereferenced
	assert.Equal(t, []byte("foo.erl"), unpacked.Contents["src/link.erl"])
}

func TestCreateDocs(t *testing.T) {
	docs, err := CreateDocs([]File{NewFile("index.html", []byte("<html></html>"))})
	require.NoError(t, err)
	assert.Equal(t, gzipHeader, docs[:10])

	again, err := CreateDocs([]File{NewFile("index.html", []byte("<html></html>"))})
	require.NoError(t, err)
	assert.Equal(t, docs, again)
}

// repack builds a valid package tarball, lets the test mutate its outer
// entries and reassembles them in the canonical order.
func repack(t *testing.T, mutate func(map[string][]byte)) []byte {
	t.Helper()

	pkg, err := Create(map[string]any{"name": "foo"}, nil)
	require.NoError(t, err)
	entries, err := readTar(pkg.Data)
	require.NoError(t, err)

	mutate(entries)

	order := append(append([]string(nil), requiredFiles...), "extra")
	var files []File
	for _, name := range order {
		if content, ok := entries[name]; ok {
			files = append(files, NewFile(name, content))
		}
	}
	data, err := writeTar(files)
	require.NoError(t, err)
	return data
}

func keysOf(entries map[string][]byte) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	return keys
}
