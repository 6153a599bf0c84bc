// Package ui asks for confirmation before a load replaces a table.
package ui
