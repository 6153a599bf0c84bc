// Package ddl renders the SQL pgstage sends to PostgreSQL.
//
// Everything here is pure string building: no function performs I/O, so type
// mapping failures surface before a connection is ever touched. Every
// statement names its table through pgstage.Table.Sanitize, which keeps the
// DDL and the COPY pointed at the same physical table.
package ddl
