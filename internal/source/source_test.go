package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
	"github.com/xuri/excelize/v2"
)

const bedsCSV = `date,county,beds,occupancy,updated
2020-04-01,Dade,120,0.81,2020-04-01T12:00:00Z
2020-04-02,Leon,,0.5,2020-04-02T07:00:00-05:00
`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func cell(t *testing.T, f *frame.Frame, col string, row int) any {
	t.Helper()
	idx := f.FieldIndex(col)
	require.GreaterOrEqual(t, idx, 0, "column %s", col)
	v, err := frame.Value(f.Batches()[0].Column(idx), row)
	require.NoError(t, err)
	return v
}

func assertBeds(t *testing.T, f *frame.Frame) {
	t.Helper()
	assert.Equal(t, int64(2), f.NumRows())

	kinds, err := f.Kinds([]string{"date", "county", "beds", "occupancy", "updated"})
	require.NoError(t, err)
	assert.Equal(t, []frame.Kind{
		frame.KindTimestampNaive,
		frame.KindText,
		frame.KindInt64,
		frame.KindFloat64,
		frame.KindTimestampUTC,
	}, kinds)

	assert.Equal(t, "Dade", cell(t, f, "county", 0))
	assert.Equal(t, int64(120), cell(t, f, "beds", 0))
	assert.Nil(t, cell(t, f, "beds", 1), "empty cell is null")
	assert.Equal(t, 0.5, cell(t, f, "occupancy", 1))
	assert.Equal(t, time.Date(2020, 4, 2, 12, 0, 0, 0, time.UTC), cell(t, f, "updated", 1))
}

func TestRead_CSV(t *testing.T) {
	path := writeFile(t, "beds.csv", []byte(bedsCSV))

	f, err := Read(context.Background(), path, Options{})
	require.NoError(t, err)
	defer f.Release()

	assertBeds(t, f)
	assert.Empty(t, f.IndexNames())
}

func TestRead_CSVKeepsZeroPaddedCodes(t *testing.T) {
	path := writeFile(t, "fips.csv", []byte("fips,county,beds\n01001,Autauga,12\n12086,Miami-Dade,120\n"))

	f, err := Read(context.Background(), path, Options{})
	require.NoError(t, err)
	defer f.Release()

	kinds, err := f.Kinds([]string{"fips", "beds"})
	require.NoError(t, err)
	assert.Equal(t, []frame.Kind{frame.KindText, frame.KindInt64}, kinds)
	assert.Equal(t, "01001", cell(t, f, "fips", 0))
	assert.Equal(t, "12086", cell(t, f, "fips", 1))
}

func TestRead_CSVWithIndex(t *testing.T) {
	path := writeFile(t, "beds.csv", []byte(bedsCSV))

	f, err := Read(context.Background(), path, Options{Index: []string{"date", "county"}})
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, []string{"date", "county"}, f.IndexNames())
	assert.Equal(t, []string{"beds", "occupancy", "updated"}, f.Columns())
}

func TestRead_TSV(t *testing.T) {
	path := writeFile(t, "beds.tsv", []byte("county\tnote\nDade\tsays \"hi\"\nLeon\t\n"))

	f, err := Read(context.Background(), path, Options{})
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, `says "hi"`, cell(t, f, "note", 0))
	assert.Nil(t, cell(t, f, "note", 1))
}

func TestRead_CustomDelimiter(t *testing.T) {
	path := writeFile(t, "beds.txt", []byte("county;beds\nDade;1\n"))

	f, err := Read(context.Background(), path, Options{Format: FormatCSV, Delimiter: ';'})
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, int64(1), cell(t, f, "beds", 0))
}

func TestRead_Compressed(t *testing.T) {
	compressors := map[string]func(t *testing.T, data []byte) []byte{
		".gz": func(t *testing.T, data []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, err := w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		".zst": func(t *testing.T, data []byte) []byte {
			var buf bytes.Buffer
			w, err := zstd.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		".xz": func(t *testing.T, data []byte) []byte {
			var buf bytes.Buffer
			w, err := xz.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
	}

	for ext, compress := range compressors {
		t.Run(ext, func(t *testing.T) {
			path := writeFile(t, "beds.csv"+ext, compress(t, []byte(bedsCSV)))

			f, err := Read(context.Background(), path, Options{})
			require.NoError(t, err)
			defer f.Release()

			assertBeds(t, f)
		})
	}
}

func TestRead_Parquet(t *testing.T) {
	src, err := frame.FromColumns(nil,
		frame.Column{Name: "county", Kind: frame.KindText, Values: []any{"Dade", nil}},
		frame.Column{Name: "beds", Kind: frame.KindInt32, Values: []any{int32(120), int32(80)}},
		frame.Column{Name: "updated", Kind: frame.KindTimestampUTC, Values: []any{
			time.Date(2020, 4, 1, 12, 0, 0, 0, time.UTC), nil,
		}},
	)
	require.NoError(t, err)
	defer src.Release()

	table := array.NewTableFromRecords(src.Schema(), src.Batches())
	defer table.Release()

	var buf bytes.Buffer
	err = pqarrow.WriteTable(table, &buf, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	path := writeFile(t, "beds.parquet", buf.Bytes())

	f, err := Read(context.Background(), path, Options{Index: []string{"county"}})
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, int64(2), f.NumRows())
	assert.Equal(t, []string{"county"}, f.IndexNames())

	kinds, err := f.Kinds([]string{"county", "beds", "updated"})
	require.NoError(t, err)
	assert.Equal(t, []frame.Kind{frame.KindText, frame.KindInt32, frame.KindTimestampUTC}, kinds)

	assert.Nil(t, cell(t, f, "county", 1))
	assert.Equal(t, int32(80), cell(t, f, "beds", 1))
	assert.Equal(t, time.Date(2020, 4, 1, 12, 0, 0, 0, time.UTC), cell(t, f, "updated", 0))
}

func TestRead_XLSX(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()

	sheet := "Capacity"
	_, err := book.NewSheet(sheet)
	require.NoError(t, err)
	rows := [][]any{
		{"county", "beds"},
		{"Dade", 120},
		{"Leon", nil},
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, book.SetCellValue(sheet, name, v))
		}
	}

	path := filepath.Join(t.TempDir(), "beds.xlsx")
	require.NoError(t, book.SaveAs(path))

	f, err := Read(context.Background(), path, Options{Sheet: sheet})
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, int64(2), f.NumRows())
	assert.Equal(t, int64(120), cell(t, f, "beds", 0))
	assert.Nil(t, cell(t, f, "beds", 1))

	_, err = Read(context.Background(), path, Options{Sheet: "Missing"})
	assert.Error(t, err)
}

func TestRead_Errors(t *testing.T) {
	t.Run("unknown extension", func(t *testing.T) {
		path := writeFile(t, "beds.json", []byte("{}"))
		_, err := Read(context.Background(), path, Options{})
		assert.ErrorIs(t, err, pgstage.ErrUnsupportedFormat)
		assert.Equal(t, pgstage.ExitUnsupportedFormat, pgstage.ExitCodeForError(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Read(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty csv", func(t *testing.T) {
		path := writeFile(t, "empty.csv", nil)
		_, err := Read(context.Background(), path, Options{})
		assert.ErrorIs(t, err, pgstage.ErrInvalidConfig)
	})

	t.Run("row wider than header", func(t *testing.T) {
		path := writeFile(t, "wide.csv", []byte("a,b\n1,2,3\n"))
		_, err := Read(context.Background(), path, Options{})
		assert.ErrorIs(t, err, pgstage.ErrInvalidConfig)
	})

	t.Run("unknown index", func(t *testing.T) {
		path := writeFile(t, "beds.csv", []byte(bedsCSV))
		_, err := Read(context.Background(), path, Options{Index: []string{"fips"}})
		assert.ErrorIs(t, err, pgstage.ErrInvalidConfig)
	})

	t.Run("cancelled context", func(t *testing.T) {
		path := writeFile(t, "beds.csv", []byte(bedsCSV))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Read(ctx, path, Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path        string
		format      Format
		compression Compression
	}{
		{"beds.csv", FormatCSV, CompressionNone},
		{"beds.CSV.GZ", FormatCSV, CompressionGZ},
		{"beds.tsv.zst", FormatTSV, CompressionZSTD},
		{"beds.parquet", FormatParquet, CompressionNone},
		{"beds.xlsx", FormatXLSX, CompressionNone},
		{"beds.csv.xz", FormatCSV, CompressionXZ},
		{"beds.csv.bz2", FormatCSV, CompressionBZ2},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, compression, err := Detect(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, tt.compression, compression)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("TSV")
	require.NoError(t, err)
	assert.Equal(t, FormatTSV, f)

	_, err = ParseFormat("json")
	assert.ErrorIs(t, err, pgstage.ErrUnsupportedFormat)
}
