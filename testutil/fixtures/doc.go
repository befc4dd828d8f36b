// Package fixtures provides test data builders for relay events.
//
// The builders produce structurally valid events (hex identifiers of the
// right length, well-formed tags) without performing any cryptography, which
// is all the storage layer needs.
package fixtures
