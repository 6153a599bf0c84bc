package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes and codes that indicate the server may accept a later attempt.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
var (
	transientClasses = []string{
		"08", // connection exception
		"53", // insufficient resources
	}

	transientCodes = map[string]bool{
		"57P01": true, // admin_shutdown
		"57P02": true, // crash_shutdown
		"57P03": true, // cannot_connect_now (server starting up)
		"55P03": true, // lock_not_available
	}
)

// transientPatterns match driver errors that carry no SQLSTATE.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"server closed the connection",
	"unexpected eof",
	"the database system is starting up",
}

// PostgreSQLErrorClassifier implements pgstage.ErrorClassifier for errors
// raised while establishing a PostgreSQL connection.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient reports whether err is worth another connection attempt.
// Authentication failures, unknown databases and unresolvable hosts are fatal.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	if transient, ok := classifyNetError(err); ok {
		return transient
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isTransientCode(code string) bool {
	if transientCodes[code] {
		return true
	}
	for _, class := range transientClasses {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	return false
}

// classifyNetError inspects DNS and dial errors. ok is false when err is
// neither.
func classifyNetError(err error) (transient, ok bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return false, true
		}
		return dnsErr.IsTemporary || dnsErr.IsTimeout, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true, true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true, true
			}
		}
		return false, true
	}

	return false, false
}
