package source

import (
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies the codec wrapping a dataset file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGZ
	CompressionZSTD
	CompressionXZ
	CompressionBZ2
)

var compressionExtensions = map[string]Compression{
	".gz":  CompressionGZ,
	".zst": CompressionZSTD,
	".xz":  CompressionXZ,
	".bz2": CompressionBZ2,
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGZ:
		return "gzip"
	case CompressionZSTD:
		return "zstd"
	case CompressionXZ:
		return "xz"
	case CompressionBZ2:
		return "bzip2"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// splitCompression returns the path without its compression suffix and the codec.
func splitCompression(path string) (string, Compression) {
	ext := strings.ToLower(filepath.Ext(path))
	if c, ok := compressionExtensions[ext]; ok {
		return strings.TrimSuffix(path, filepath.Ext(path)), c
	}
	return path, CompressionNone
}

// openFile opens path and wraps it in the decompressor c requires.
// Closing the returned reader closes the file.
func openFile(path string, c Compression) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	r, closeFn, err := decompress(f, c)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &readCloser{Reader: r, close: func() error {
		closeFn()
		return f.Close()
	}}, nil
}

func decompress(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionGZ:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, dec.Close, nil
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, func() {}, nil
	case CompressionBZ2:
		return bzip2.NewReader(r), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported compression %s", c)
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }
