// Package tui detects interactive terminals and draws load progress.
package tui
