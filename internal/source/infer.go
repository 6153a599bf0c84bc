package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Layouts tried for date-times. Fractional seconds are accepted after the
// seconds field without being spelled out.
var (
	zonedLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05 Z07:00",
		"2006-01-02 15:04:05-07",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
		"1/2/2006 15:04:05",
		"1/2/2006 3:04:05 PM",
		"1/2/2006",
	}
)

func parseWithLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// hasLeadingZero reports whether v is a zero-padded number such as the FIPS
// code "01001". Parsing it as a number would lose the padding.
func hasLeadingZero(v string) bool {
	v = strings.TrimLeft(v, "+-")
	return len(v) > 1 && v[0] == '0' && v[1] >= '0' && v[1] <= '9'
}

// inferKind picks the narrowest kind every non-empty value fits.
func inferKind(values []string) frame.Kind {
	isInt, isFloat, isZoned, isNaive := true, true, true, true
	seen := false

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen = true

		if hasLeadingZero(v) {
			isInt, isFloat = false, false
		}
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isZoned {
			if _, ok := parseWithLayouts(v, zonedLayouts); !ok {
				isZoned = false
			}
		}
		if isNaive {
			if _, ok := parseWithLayouts(v, naiveLayouts); !ok {
				isNaive = false
			}
		}
		if !isInt && !isFloat && !isZoned && !isNaive {
			break
		}
	}

	switch {
	case !seen:
		return frame.KindText
	case isInt:
		return frame.KindInt64
	case isFloat:
		return frame.KindFloat64
	case isZoned:
		return frame.KindTimestampUTC
	case isNaive:
		return frame.KindTimestampNaive
	default:
		return frame.KindText
	}
}

// convert parses one cell into the Go value FromColumns expects for kind.
// Empty cells of every kind are nulls.
func convert(v string, kind frame.Kind) (any, error) {
	if kind != frame.KindText {
		v = strings.TrimSpace(v)
	}
	if v == "" {
		return nil, nil
	}

	switch kind {
	case frame.KindInt64:
		return strconv.ParseInt(v, 10, 64)
	case frame.KindFloat64:
		return strconv.ParseFloat(v, 64)
	case frame.KindTimestampUTC:
		if t, ok := parseWithLayouts(v, zonedLayouts); ok {
			return t.UTC(), nil
		}
		return nil, fmt.Errorf("cannot parse %q as a zoned date-time", v)
	case frame.KindTimestampNaive:
		if t, ok := parseWithLayouts(v, naiveLayouts); ok {
			return t, nil
		}
		return nil, fmt.Errorf("cannot parse %q as a date-time", v)
	}
	return v, nil
}

// buildFrame turns a header and string rows into a typed frame.
func buildFrame(header []string, rows [][]string, index []string) (*frame.Frame, error) {
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column%d", i+1)
		}
		names[i] = h
	}

	columns := make([][]string, len(names))
	for r, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d: %w",
				r+2, len(row), len(names), pgstage.ErrInvalidConfig)
		}
		for i := range names {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			columns[i] = append(columns[i], cell)
		}
	}

	cols := make([]frame.Column, len(names))
	for i, name := range names {
		kind := inferKind(columns[i])
		values := make([]any, len(columns[i]))
		for r, cell := range columns[i] {
			v, err := convert(cell, kind)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, r+2, err)
			}
			values[r] = v
		}
		cols[i] = frame.Column{Name: name, Kind: kind, Values: values}
	}

	return frame.FromColumns(index, cols...)
}
