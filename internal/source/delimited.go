package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// readDelimited reads a header row followed by data rows.
func readDelimited(ctx context.Context, r io.Reader, delim rune, index []string) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	if delim == '\t' {
		cr.LazyQuotes = true
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("file has no header row: %w", pgstage.ErrInvalidConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		if len(rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}

	return buildFrame(header, rows, index)
}
