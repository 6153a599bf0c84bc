// Package manager creates and drops whole PostgreSQL databases.
//
// Names are always quoted with pgx.Identifier.Sanitize(), so database names
// holding spaces, quotes or semicolons are safe to pass.
//
//	mgr := manager.New()
//	if err := mgr.Create(ctx, pool, "covid_staging"); err != nil { ... }
//
//	// Drop refuses while sessions are connected; terminate them first.
//	_ = mgr.TerminateConnections(ctx, pool, "covid_staging")
//	err = mgr.Drop(ctx, pool, "covid_staging")
//
// Manager holds no state. Concurrency follows the connection passed in.
package manager
