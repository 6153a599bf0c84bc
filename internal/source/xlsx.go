package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/xuri/excelize/v2"
)

// readXLSX reads one worksheet. The first row is the header.
func readXLSX(ctx context.Context, r io.Reader, sheet string, index []string) (*frame.Frame, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer func() {
		_ = book.Close()
	}()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("no sheets found in XLSX file")
		}
		sheet = sheets[0]
	}

	iter, err := book.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open rows iterator for sheet %s: %w", sheet, err)
	}
	defer iter.Close()

	var (
		header []string
		rows   [][]string
	)
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		if header == nil {
			header = row
			continue
		}
		rows = append(rows, row)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate sheet %s: %w", sheet, err)
	}
	if header == nil {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	return buildFrame(header, rows, index)
}
