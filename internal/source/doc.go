// Package source reads dataset files into frames.
//
// Supported formats are CSV, TSV, Parquet and XLSX, each optionally
// compressed with gzip (.gz), zstd (.zst), xz (.xz) or bzip2 (.bz2). The
// format is taken from the extension underneath the compression suffix
// unless Options.Format overrides it.
//
// Parquet keeps its Arrow schema. Text formats carry no types, so each
// column's kind is inferred from its non-empty cells: integers become Int64,
// other numbers Float64, date-times with a zone TimestampUTC, date-times
// without one TimestampNaive, and everything else Text. Empty cells are nulls.
package source
