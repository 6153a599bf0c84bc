// Package testing provides PostgreSQL fixtures for integration tests.
//
// Tests run against $PGSTAGE_TEST_CONN when set, otherwise against a shared
// testcontainers PostgreSQL started on first use. Each test gets its own
// database, dropped on cleanup.
package testing

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/internal/db/manager"
	"github.com/vvka-141/pgstage/internal/testinfra"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// TestConnEnvVar names the environment variable pointing tests at an existing server.
const TestConnEnvVar = "PGSTAGE_TEST_CONN"

var (
	containerOnce sync.Once
	containerConn string
	containerErr  error
)

func sharedContainer() (string, error) {
	containerOnce.Do(func() {
		ctr, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			containerErr = err
			return
		}
		containerConn = ctr.ConnString
	})
	return containerConn, containerErr
}

// RequireDatabase returns the admin connection string of the test server.
// It skips the test under -short, or when no server is configured and
// Docker is unavailable.
func RequireDatabase(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if conn := os.Getenv(TestConnEnvVar); conn != "" {
		return conn
	}
	conn, err := sharedContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnvVar, err)
	}
	return conn
}

// NewTestDatabase creates a uniquely named database and drops it, after
// terminating leftover sessions, when the test completes.
func NewTestDatabase(t *testing.T, connString string) string {
	t.Helper()
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("open admin pool: %v", err)
	}
	mgr := manager.New()

	name := "pgstage_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if err := mgr.Create(ctx, admin, name); err != nil {
		admin.Close()
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() {
		defer admin.Close()
		if err := mgr.TerminateConnections(ctx, admin, name); err != nil {
			t.Logf("terminate sessions: %v", err)
		}
		if err := mgr.Drop(ctx, admin, name); err != nil {
			t.Logf("drop test database: %v", err)
		}
	})
	return name
}

// TargetConnectionString rewrites connString to point at dbName.
func TargetConnectionString(t *testing.T, connString, dbName string) string {
	t.Helper()
	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	cfg.Database = dbName
	return db.BuildConnectionString(cfg)
}

// GetTestPool opens a pool to dbName, closed when the test completes.
func GetTestPool(t *testing.T, connString, dbName string) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), TargetConnectionString(t, connString, dbName))
	if err != nil {
		t.Fatalf("open test pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// GetTestConn opens a single connection to dbName, closed when the test completes.
func GetTestConn(t *testing.T, connString, dbName string) *pgx.Conn {
	t.Helper()
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, TargetConnectionString(t, connString, dbName))
	if err != nil {
		t.Fatalf("open test connection: %v", err)
	}
	t.Cleanup(func() { conn.Close(ctx) })
	return conn
}

// NewTestPool is RequireDatabase, NewTestDatabase and GetTestPool in one call.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	connString := RequireDatabase(t)
	return GetTestPool(t, connString, NewTestDatabase(t, connString))
}

// Querier is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, q Querier, table pgstage.Table) int64 {
	t.Helper()
	var n int64
	if err := q.QueryRow(context.Background(), "SELECT count(*) FROM "+table.Sanitize()).Scan(&n); err != nil {
		t.Fatalf("count rows of %s: %v", table, err)
	}
	return n
}

// TableExists reports whether table is visible to q.
func TableExists(t *testing.T, q Querier, table pgstage.Table) bool {
	t.Helper()
	var exists bool
	if err := q.QueryRow(context.Background(), "SELECT to_regclass($1) IS NOT NULL", table.Sanitize()).Scan(&exists); err != nil {
		t.Fatalf("look up %s: %v", table, err)
	}
	return exists
}

// ForceApprover approves every replace request.
type ForceApprover struct{}

func (a *ForceApprover) RequestApproval(context.Context, string) (bool, error) {
	return true, nil
}

var _ pgstage.Approver = (*ForceApprover)(nil)
