// Package relaystore provides the core, database-agnostic types for the
// storage-query layer of a Nostr-style publish/subscribe relay.
//
// Stored events are immutable and cryptographically signed; subscription
// filters describe which of them a subscriber wants to see. This package
// defines both sides of that contract, plus the hex-prefix codec used to
// match partial identifiers:
//   - Event: an immutable signed event with hex identifiers at the boundary
//   - Filter: a conjunctive set of optional match criteria over stored events
//   - HexPrefix: a hex identifier criterion decoded into an exact byte prefix
//     or an inclusive byte range
//
// Within one Filter all present criteria are ANDed; an absent (nil) criterion
// applies no constraint, while a present-but-empty criterion is a
// contradiction and matches nothing. A subscription request is an ordered,
// non-empty list of Filters combined by logical OR.
//
// The Postgres implementation lives in the postgresengine subpackage:
//
//	store, _ := postgresengine.NewEventStoreFromPGXPool(pool)
//	limit := uint(100)
//	events, err := store.FindByFilters(ctx, relaystore.Filters{
//		{Authors: []string{"22e804"}, Kinds: []int{1}, Limit: &limit},
//	})
package relaystore
