package tarball

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"time"
)

// epoch is the fixed timestamp stamped on every tar entry. Reproducible
// output forbids real modification times.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// File is a single entry of a tarball under construction. Data takes
// precedence over Source; when both are empty the entry is read from the
// path given by Name.
type File struct {
	// Name is the path of the entry inside the tarball.
	Name string

	// Source is the filesystem path the entry is read from. Empty means
	// Name, relative to the working directory.
	Source string

	// Data is the literal file content. Entries created from bytes get
	// mode 0o644.
	Data []byte
}

// NewFile returns a File carrying literal content.
func NewFile(name string, data []byte) File {
	return File{Name: name, Data: data}
}

// writeTar streams the given entries, in order, into an in-memory tar
// archive with the fixed header policy: epoch timestamps, uid and gid
// zero, symlinks preserved, directories only when empty.
func writeTar(files []File) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, file := range files {
		if err := addEntry(tw, file); err != nil {
			return nil, fmt.Errorf("adding %s: %w", file.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar writer: %w", err)
	}
	return buf.Bytes(), nil
}

func addEntry(tw *tar.Writer, file File) error {
	if file.Data != nil {
		return writeHeaderAndData(tw, &tar.Header{
			Name:     file.Name,
			Mode:     0o644,
			Size:     int64(len(file.Data)),
			Typeflag: tar.TypeReg,
		}, file.Data)
	}

	source := file.Source
	if source == "" {
		source = file.Name
	}
	fi, err := os.Lstat(source)
	if err != nil {
		return err
	}

	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(source)
		if err != nil {
			return err
		}
		return writeHeaderAndData(tw, &tar.Header{
			Name:     file.Name,
			Mode:     0o777,
			Linkname: target,
			Typeflag: tar.TypeSymlink,
		}, nil)
	case fi.IsDir():
		entries, err := os.ReadDir(source)
		if err != nil {
			return err
		}
		// non-empty directories are implied by their contained files
		if len(entries) > 0 {
			return nil
		}
		return writeHeaderAndData(tw, &tar.Header{
			Name:     file.Name + "/",
			Mode:     int64(fi.Mode().Perm()),
			Typeflag: tar.TypeDir,
		}, nil)
	default:
		f, err := os.Open(source) //nolint:gosec
		if err != nil {
			return err
		}
		defer f.Close() // nolint: errcheck,gosec
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		return writeHeaderAndData(tw, &tar.Header{
			Name:     file.Name,
			Mode:     int64(fi.Mode().Perm()),
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}, data)
	}
}

func writeHeaderAndData(tw *tar.Writer, hdr *tar.Header, data []byte) error {
	hdr.ModTime = epoch
	hdr.Uid = 0
	hdr.Gid = 0
	hdr.Uname = ""
	hdr.Gname = ""
	hdr.Format = tar.FormatUSTAR
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	_, err := tw.Write(data)
	return err
}
