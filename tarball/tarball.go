// Package tarball builds and unpacks package tarballs in the registry's
// two layer format: an uncompressed outer tar holding VERSION, CHECKSUM,
// metadata.config and a gzipped inner tar of the package files.
//
// Creation is byte-reproducible: equal input yields identical output.
package tarball

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hexpm/hexgo/internal/maps"
	"github.com/hexpm/hexgo/metadata"
)

// Version is the package format version written to the VERSION entry.
const Version = "3"

const (
	// MaxSize is the cap on the outer tarball.
	MaxSize = 8 * 1024 * 1024
	// MaxUncompressedSize is the cap on the uncompressed inner payload.
	MaxUncompressedSize = 64 * 1024 * 1024
)

// InMemory is the Unpack destination that keeps the extracted contents in
// memory instead of writing them to disk.
const InMemory = ":memory:"

// requiredFiles are the outer entries, in the order they are written.
var requiredFiles = []string{"VERSION", "CHECKSUM", "metadata.config", "contents.tar.gz"}

// Package is a built package tarball.
type Package struct {
	// Data is the outer tarball.
	Data []byte

	// OuterChecksum is the SHA256 of Data. It is the authoritative
	// identity of the package and the value to compare against the
	// checksum the registry reports.
	OuterChecksum []byte

	// InnerChecksum is the legacy checksum embedded in the CHECKSUM
	// entry, kept for compatibility with existing tarballs.
	InnerChecksum []byte
}

// Unpacked is the result of unpacking a package tarball.
type Unpacked struct {
	OuterChecksum []byte
	InnerChecksum []byte

	// Metadata is the decoded and normalized metadata.config mapping.
	Metadata map[string]any

	// Contents maps file paths to their bytes. Only set when unpacking
	// with the InMemory destination.
	Contents map[string][]byte
}

// Create builds a package tarball from a metadata mapping and a list of
// files.
func Create(meta map[string]any, files []File) (*Package, error) {
	metaBytes, err := metadata.Encode(meta)
	if err != nil {
		return nil, err
	}

	innerTar, err := writeTar(files)
	if err != nil {
		return nil, err
	}
	contents, err := Gzip(innerTar)
	if err != nil {
		return nil, err
	}

	innerChecksum := innerChecksum(metaBytes, contents)
	outer, err := writeTar([]File{
		NewFile("VERSION", []byte(Version)),
		NewFile("CHECKSUM", []byte(EncodeChecksum(innerChecksum))),
		NewFile("metadata.config", metaBytes),
		NewFile("contents.tar.gz", contents),
	})
	if err != nil {
		return nil, err
	}

	if len(outer) > MaxSize || len(innerTar) > MaxUncompressedSize {
		return nil, ErrTooBig
	}

	return &Package{
		Data:          outer,
		OuterChecksum: Checksum(outer),
		InnerChecksum: innerChecksum,
	}, nil
}

// CreateDocs builds a documentation tarball: a reproducible gzipped tar
// of the given files, with the same size caps as package tarballs.
func CreateDocs(files []File) ([]byte, error) {
	docsTar, err := writeTar(files)
	if err != nil {
		return nil, err
	}
	data, err := Gzip(docsTar)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSize || len(docsTar) > MaxUncompressedSize {
		return nil, ErrTooBig
	}
	return data, nil
}

// Unpack validates and extracts a package tarball. The destination is
// either a directory path or the InMemory sentinel. Validation is strict:
// the outer entry set, the format version and the embedded inner checksum
// must all check out, in that order, and the first failure wins.
func Unpack(data []byte, dest string) (*Unpacked, error) {
	if len(data) > MaxSize {
		return nil, ErrTooBig
	}

	entries, err := readTar(data)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	if err := checkFiles(entries); err != nil {
		return nil, err
	}
	if err := checkVersion(entries); err != nil {
		return nil, err
	}
	innerChecksum, err := checkInnerChecksum(entries)
	if err != nil {
		return nil, err
	}
	meta, err := metadata.Decode(entries["metadata.config"])
	if err != nil {
		return nil, err
	}
	meta = metadata.Normalize(meta)

	unpacked := &Unpacked{
		OuterChecksum: Checksum(data),
		InnerChecksum: innerChecksum,
		Metadata:      meta,
	}

	innerTar, err := Gunzip(entries["contents.tar.gz"], MaxUncompressedSize)
	if err != nil {
		if errors.Is(err, ErrTooBig) {
			return nil, err
		}
		return nil, InnerError{Err: err}
	}

	if dest == InMemory {
		contents, err := readTar(innerTar)
		if err != nil {
			return nil, InnerError{Err: err}
		}
		unpacked.Contents = contents
		return unpacked, nil
	}

	if err := extractToDir(innerTar, dest, entries["metadata.config"]); err != nil {
		return nil, err
	}
	return unpacked, nil
}

// innerChecksum computes the legacy checksum over the concatenation of
// the version, the metadata bytes and the gzipped contents.
func innerChecksum(metaBytes, contents []byte) []byte {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write(metaBytes)
	h.Write(contents)
	return h.Sum(nil)
}

// readTar reads a whole tar archive into a map of path to content.
// Directory entries are recorded with empty content.
func readTar(data []byte) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			entries[strings.TrimSuffix(hdr.Name, "/")] = nil
		case tar.TypeSymlink:
			entries[hdr.Name] = []byte(hdr.Linkname)
		default:
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, err
			}
			entries[hdr.Name] = content
		}
	}
}

// checkFiles verifies the outer entry set is exactly the required one.
// Unexpected entries take precedence over missing ones.
func checkFiles(entries map[string][]byte) error {
	required := make(map[string]bool, len(requiredFiles))
	for _, name := range requiredFiles {
		required[name] = true
	}

	var invalid []string
	for _, name := range maps.Keys(entries) {
		if !required[name] {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return ErrInvalidFiles{Files: invalid}
	}

	var missing []string
	for _, name := range requiredFiles {
		if _, ok := entries[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ErrMissingFiles{Files: missing}
	}
	return nil
}

func checkVersion(entries map[string][]byte) error {
	if v := string(entries["VERSION"]); v != Version {
		return ErrBadVersion{Version: v}
	}
	return nil
}

// checkInnerChecksum recomputes the legacy checksum and compares it to
// the embedded CHECKSUM entry.
func checkInnerChecksum(entries map[string][]byte) ([]byte, error) {
	expected, err := DecodeChecksum(string(entries["CHECKSUM"]))
	if err != nil {
		return nil, ErrInvalidInnerChecksum
	}
	actual := innerChecksum(entries["metadata.config"], entries["contents.tar.gz"])
	if !bytes.Equal(expected, actual) {
		return nil, ErrInnerChecksumMismatch{Expected: expected, Actual: actual}
	}
	return actual, nil
}

// extractToDir writes the inner tar into dest, stores the raw
// metadata.config alongside it and bumps every extracted path's mtime to
// now. Touch failures, such as symlinks to nowhere, are ignored.
func extractToDir(innerTar []byte, dest string, metaBytes []byte) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	var extracted []string
	tr := tar.NewReader(bytes.NewReader(innerTar))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return InnerError{Err: err}
		}
		name := filepath.FromSlash(hdr.Name)
		if !filepath.IsLocal(name) {
			return InnerError{Err: fmt.Errorf("illegal path %q", hdr.Name)}
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode).Perm()); err != nil {
				return InnerError{Err: err}
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return InnerError{Err: err}
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return InnerError{Err: err}
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return InnerError{Err: err}
			}
			content, err := io.ReadAll(tr)
			if err != nil {
				return InnerError{Err: err}
			}
			if err := os.WriteFile(target, content, os.FileMode(hdr.Mode).Perm()); err != nil {
				return InnerError{Err: err}
			}
		}
		extracted = append(extracted, target)
	}

	if err := os.WriteFile(filepath.Join(dest, "hex_metadata.config"), metaBytes, 0o644); err != nil {
		return err
	}

	now := time.Now()
	for _, path := range extracted {
		// bad symlinks cannot be touched; that is fine
		_ = os.Chtimes(path, now, now)
	}
	return nil
}
