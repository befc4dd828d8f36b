// Package adapters provides database adapter implementations for the PostgreSQL relay event store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, allowing the event store to work seamlessly with any
// supported database connection type.
//
// The pgx adapter additionally supports an optional read replica: filter queries are
// routed to the replica while event writes always hit the primary.
package adapters
