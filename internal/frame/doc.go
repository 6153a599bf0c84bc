// Package frame holds the in-memory tabular dataset handed to the loader.
//
// A Frame is an ordered set of named columns stored as Apache Arrow record
// batches that share one schema. Some columns may be marked as the index;
// they behave like a pandas index and are only loaded on request.
//
// Every column has a semantic Kind. Classify maps an Arrow data type onto the
// closed Kind enumeration and rejects anything else with
// pgstage.ErrUnsupportedType, so unsupported data is caught before any
// database work starts.
//
// Null handling follows Arrow's validity bitmap: a null and an empty string
// are different values. Floating-point NaN is read back as a null.
package frame
