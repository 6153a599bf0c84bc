package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	queryDatabaseExists       = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	queryTerminateConnections = `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`
)

// Conn is the part of *pgxpool.Pool and *pgx.Conn the manager needs.
// It must not be inside a transaction: CREATE and DROP DATABASE refuse to run in one.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Manager runs database lifecycle statements against an administrative connection.
type Manager struct{}

// New creates a Manager.
func New() *Manager {
	return &Manager{}
}

// Exists reports whether dbName exists on the server.
func (m *Manager) Exists(ctx context.Context, conn Conn, dbName string) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create creates dbName.
func (m *Manager) Create(ctx context.Context, conn Conn, dbName string) error {
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// Drop drops dbName if it exists.
func (m *Manager) Drop(ctx context.Context, conn Conn, dbName string) error {
	if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		return fmt.Errorf("failed to drop database %q: %w", dbName, err)
	}
	return nil
}

// TerminateConnections ends every other session connected to dbName.
func (m *Manager) TerminateConnections(ctx context.Context, conn Conn, dbName string) error {
	if _, err := conn.Exec(ctx, queryTerminateConnections, dbName); err != nil {
		return fmt.Errorf("failed to terminate connections to database %q: %w", dbName, err)
	}
	return nil
}
