package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// checkHandle rejects handles that cannot be resolved into a connection.
func checkHandle(h pgstage.Handle) error {
	switch v := h.(type) {
	case nil:
		return &pgstage.ConfigurationError{Handle: "<nil>", Reason: "no connection handle given"}
	case pgstage.Pooled:
		if v.Pool == nil {
			return &pgstage.ConfigurationError{Handle: "Pooled", Reason: "pool is nil"}
		}
	case *pgstage.Pooled:
		if v == nil || v.Pool == nil {
			return &pgstage.ConfigurationError{Handle: "*Pooled", Reason: "pool is nil"}
		}
	case pgstage.SingleConnection:
		if v.Conn == nil {
			return &pgstage.ConfigurationError{Handle: "SingleConnection", Reason: "connection is nil"}
		}
	case *pgstage.SingleConnection:
		if v == nil || v.Conn == nil {
			return &pgstage.ConfigurationError{Handle: "*SingleConnection", Reason: "connection is nil"}
		}
	default:
		return &pgstage.ConfigurationError{Handle: fmt.Sprintf("%T", h), Reason: "unknown handle variant"}
	}
	return nil
}

// isPooled reports whether h hands out connections shared with other callers.
func isPooled(h pgstage.Handle) bool {
	switch h.(type) {
	case pgstage.Pooled, *pgstage.Pooled:
		return true
	}
	return false
}

// acquire resolves a checked handle into one connection. The returned
// release func gives a pooled connection back and is a no-op otherwise.
func acquire(ctx context.Context, h pgstage.Handle) (*pgx.Conn, func(), error) {
	switch v := h.(type) {
	case *pgstage.Pooled:
		return acquire(ctx, *v)
	case *pgstage.SingleConnection:
		return acquire(ctx, *v)
	case pgstage.SingleConnection:
		return v.Conn, func() {}, nil
	case pgstage.Pooled:
		pc, err := v.Pool.Acquire(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to acquire connection: %w: %w", pgstage.ErrConnectionFailed, err)
		}
		return pc.Conn(), pc.Release, nil
	}
	return nil, nil, checkHandle(h)
}
