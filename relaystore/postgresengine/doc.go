// Package postgresengine provides the PostgreSQL query and storage engine for relay events.
//
// This package compiles subscription filters into PostgreSQL queries over a single
// flat events table, supporting multiple database adapters (pgx, sql.DB, sqlx) with
// idempotent writes and incremental result streaming.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX), optional read replica with pgx
//   - Pure, deterministic filter-to-SQL compilation, reusable compiled queries
//   - Hex prefix matching on binary id/pubkey columns, delegation-aware author matching
//   - Idempotent event writes: an already-stored event id is a no-op, not an error
//   - Configurable table name, pluggable logging, metrics and tracing
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(db)
//
//	// With a custom table and observability
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		db,
//		postgresengine.WithTableName("relay_events"),
//		postgresengine.WithContextualLogger(logger),
//		postgresengine.WithMetrics(collector),
//	)
//
//	events, _ := store.FindByFilters(ctx, filters)
//	rowsAffected, _ := store.Create(ctx, event)
package postgresengine
