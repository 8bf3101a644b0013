package tarball

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// gzipHeader is the canonical 10 byte gzip header: deflate method, no
// flags, no mtime, no extra flags, OS byte zero. Stock gzip writers stamp
// mtime and OS bytes, which would break byte reproducibility.
var gzipHeader = []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// Gzip compresses data into a reproducible gzip stream: the fixed header,
// raw deflate output at the default level, and a little endian CRC32 and
// size trailer.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(gzipHeader)

	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("deflating: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("closing deflate writer: %w", err)
	}

	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[:4], crc32.ChecksumIEEE(data))
	binary.LittleEndian.PutUint32(trailer[4:], uint32(len(data)))
	buf.Write(trailer[:])

	return buf.Bytes(), nil
}

// Gunzip decompresses a gzip stream, reading at most limit bytes when
// limit is positive.
func Gunzip(data []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close() // nolint: errcheck

	var r io.Reader = zr
	if limit > 0 {
		r = io.LimitReader(zr, limit+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(out)) > limit {
		return nil, ErrTooBig
	}
	return out, nil
}
