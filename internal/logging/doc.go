// Package logging provides concrete implementations of the pgstage.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes formatted messages to stderr (or any writer)
//   - NullLogger: Discards all messages
//   - RecordingLogger: Keeps messages in memory for assertions in tests
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
