package postgresengine

import (
	"github.com/nostrkit/relay-eventstore-go/relaystore"
)

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithTableName sets the table name for the EventStore.
func WithTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return relaystore.ErrEmptyEventsTableName
		}

		es.eventTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the EventStore.
// The logger will receive messages at different levels based on the logger's
// configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Event counts, durations, duplicate-insert notices (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger relaystore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventStore.
// The contextual logger receives the same messages as the plain logger plus
// the operation context, enabling automatic trace/span correlation when
// tracing is enabled. When both loggers are configured the contextual one
// takes precedence.
func WithContextualLogger(logger relaystore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
// The collector will receive query/create durations, result counts, duplicate
// insert counts, and database error counts.
func WithMetrics(collector relaystore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the EventStore.
// The collector will receive span creation for query/create operations,
// context propagation, and error tracking.
func WithTracing(collector relaystore.TracingCollector) Option {
	return func(es *EventStore) error {
		es.tracingCollector = collector
		return nil
	}
}
