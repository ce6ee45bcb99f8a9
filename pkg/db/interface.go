package db

import "database/sql"

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// This allows both PostgresClient and SupabaseClient to be used interchangeably
// as replication targets for the episode archive.
type DBProvider interface {
	DB() *sql.DB
}
