// Package db resolves connection settings and opens pgx pools.
//
// Settings come from flags, environment variables and pgstage.yaml (see
// ResolveConnectionParams). NewConnector picks a pgstage.Connector for the
// configured auth method: password, AWS RDS IAM, Azure Entra ID or Google
// Cloud SQL IAM. Connection establishment is retried on transient failures;
// nothing after that is.
package db
