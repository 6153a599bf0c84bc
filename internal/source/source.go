package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Format is a dataset file format.
type Format int

const (
	FormatAuto Format = iota
	FormatCSV
	FormatTSV
	FormatParquet
	FormatXLSX
)

var formatExtensions = map[string]Format{
	".csv":     FormatCSV,
	".tsv":     FormatTSV,
	".tab":     FormatTSV,
	".parquet": FormatParquet,
	".pq":      FormatParquet,
	".xlsx":    FormatXLSX,
}

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatParquet:
		return "parquet"
	case FormatXLSX:
		return "xlsx"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ParseFormat converts a flag or config value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "parquet":
		return FormatParquet, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q: %w", s, pgstage.ErrUnsupportedFormat)
}

// Options controls how a dataset file is read.
type Options struct {
	// Format overrides detection from the file extension.
	Format Format

	// Index names the columns that become the frame index.
	Index []string

	// Sheet selects the XLSX sheet. Empty means the first sheet.
	Sheet string

	// Delimiter overrides the CSV field separator.
	Delimiter rune
}

// Detect returns the format and compression implied by a file name.
func Detect(path string) (Format, Compression, error) {
	inner, c := splitCompression(path)
	ext := strings.ToLower(filepath.Ext(inner))
	f, ok := formatExtensions[ext]
	if !ok {
		return FormatAuto, c, fmt.Errorf("%s: extension %q: %w", filepath.Base(path), ext, pgstage.ErrUnsupportedFormat)
	}
	return f, c, nil
}

// Read loads a dataset file into a frame. The caller releases the frame.
func Read(ctx context.Context, path string, opts Options) (*frame.Frame, error) {
	format, compression, err := Detect(path)
	if opts.Format != FormatAuto {
		format, err = opts.Format, nil
	}
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := openFile(path, compression)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	switch format {
	case FormatCSV:
		delim := opts.Delimiter
		if delim == 0 {
			delim = ','
		}
		return readDelimited(ctx, rc, delim, opts.Index)
	case FormatTSV:
		return readDelimited(ctx, rc, '\t', opts.Index)
	case FormatParquet:
		return readParquet(ctx, rc, opts.Index)
	case FormatXLSX:
		return readXLSX(ctx, rc, opts.Sheet, opts.Index)
	}
	return nil, fmt.Errorf("format %s: %w", format, pgstage.ErrUnsupportedFormat)
}
