package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// pgpassPath returns $PGPASSFILE or the platform default password file.
func pgpassPath() string {
	if custom := os.Getenv("PGPASSFILE"); custom != "" {
		return custom
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "postgresql", "pgpass.conf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgpass")
}

// pgpassEntry is one hostname:port:database:username:password line.
type pgpassEntry struct {
	host, port, database, username, password string
}

func newPgpassEntry(cfg *pgstage.ConnectionConfig) pgpassEntry {
	return pgpassEntry{
		host:     escapePgpass(cfg.Host),
		port:     strconv.Itoa(cfg.Port),
		database: escapePgpass(cfg.Database),
		username: escapePgpass(cfg.Username),
		password: escapePgpass(cfg.Password),
	}
}

// key is the line prefix identifying the entry.
func (e pgpassEntry) key() string {
	return strings.Join([]string{e.host, e.port, e.database, e.username}, ":") + ":"
}

func (e pgpassEntry) String() string {
	return e.key() + e.password
}

// upsert replaces the line with the same key or appends the entry.
// Comments and unrelated lines are kept in place.
func (e pgpassEntry) upsert(content string) string {
	var lines []string
	if trimmed := strings.TrimRight(content, "\n"); trimmed != "" {
		lines = strings.Split(trimmed, "\n")
	}
	replaced := false
	for i, line := range lines {
		if !replaced && strings.HasPrefix(line, e.key()) {
			lines[i] = e.String()
			replaced = true
		}
	}
	if !replaced {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n") + "\n"
}

// writePgpassEntry stores the password of cfg in the password file with mode 0600.
func writePgpassEntry(cfg *pgstage.ConnectionConfig) error {
	if cfg.Password == "" {
		return fmt.Errorf("no password to save: set $PGPASSWORD or put it in the connection string: %w", pgstage.ErrInvalidConfig)
	}
	path := pgpassPath()
	if path == "" {
		return fmt.Errorf("cannot determine home directory, set $PGPASSFILE: %w", pgstage.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := newPgpassEntry(cfg).upsert(string(existing))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0600)
}

// escapePgpass escapes backslashes and colons in a field.
func escapePgpass(s string) string {
	return strings.NewReplacer(`\`, `\\`, `:`, `\:`).Replace(s)
}
