// Package loader stages frames into PostgreSQL through COPY.
//
// Loader.Load is the bulk load: it derives the destination schema from the
// frame, applies the existence policy and streams the rows with COPY, all in
// one transaction on one connection. Nothing is visible to other sessions
// until the transaction commits.
//
// TempTable is the scoped session variant. It truncates the table on entry,
// loads the frame, and on exit truncates again and optionally drops the
// table. Only "object does not exist" errors are ignored during those
// maintenance steps; anything else is reported.
//
// Every check that needs no I/O runs before a connection is touched, in this
// order: options, column selection, type mapping, handle.
package loader
