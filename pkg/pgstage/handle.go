package pgstage

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handle is the connection argument accepted by the loader. It is a closed
// set: Pooled and SingleConnection are the only implementations.
//
// The loader resolves a Handle exactly once into a single *pgx.Conn before
// doing any other work. A Pooled handle acquires a connection for the duration
// of the call and releases it afterwards; a SingleConnection is used as is and
// is never closed by the loader.
type Handle interface {
	handle()
}

// Pooled is a Handle backed by a connection pool.
type Pooled struct {
	Pool *pgxpool.Pool
}

// SingleConnection is a Handle backed by one live connection owned by the caller.
// Session-scoped (TEMP) tables created through it stay visible to the caller.
type SingleConnection struct {
	Conn *pgx.Conn
}

func (Pooled) handle()           {}
func (SingleConnection) handle() {}

var (
	_ Handle = Pooled{}
	_ Handle = SingleConnection{}
)
