// Package spies provides observability test doubles for the relay event store.
//
// The spies capture logging, metrics and tracing calls so tests can assert the
// store's instrumentation without wiring a real backend.
package spies
