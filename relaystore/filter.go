package relaystore

import (
	"slices"
)

// TagFilters maps a single-character tag name (e.g. "e", "p", "r") to the set
// of values that must appear as the second element of a matching tag.
type TagFilters = map[string][]string

// Filters is an ordered subscription request; rows matching any filter in the
// list are returned (logical OR across filters, logical AND within one).
type Filters = []Filter

// Filter is a DTO for one conjunctive set of match criteria over stored
// events. Every criterion is independently optional:
//
//   - a nil field is absent and applies no constraint
//   - a non-nil but empty field is a contradiction and matches zero rows
//
// That distinction is load-bearing and must not be conflated. IDs and Authors
// hold full 64-character hex identifiers or shorter hex prefixes; Authors
// match the signer pubkey or the delegator. Since and Until are inclusive
// bounds on the creation time. Limit selects the most recently created rows.
type Filter struct {
	IDs     []string
	Authors []string
	Kinds   []int
	Since   *int64
	Until   *int64
	Limit   *uint
	Tags    TagFilters
}

// TagKeys returns the filter's tag names in sorted order, so that compiled
// predicate layout does not depend on map iteration order.
func (f Filter) TagKeys() []string {
	if len(f.Tags) == 0 {
		return nil
	}

	keys := make([]string, 0, len(f.Tags))
	for key := range f.Tags {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
