// Package config provides PostgreSQL database configuration for relay event store testing.
//
// This package contains factory functions for creating database connections
// using the store's supported PostgreSQL adapters (pgx.Pool, sql.DB, sqlx.DB)
// with pre-configured test database DSNs.
//
// The pgx configurations support both single-node and primary/replica setups
// for testing the read-replica routing of the PGX adapter.
package config
