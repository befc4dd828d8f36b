package relaystore

import (
	"github.com/nbd-wtf/go-nostr"
)

// Boundary conversions to and from the nbd-wtf/go-nostr types, so transport
// code built on the ecosystem-standard library can hand events and filters
// straight to this layer.

// EventFromNostr converts a transport-level go-nostr event into an Event,
// enforcing this layer's fixed-length hex invariants.
func EventFromNostr(src *nostr.Event) (Event, error) {
	var tags Tags
	if src.Tags != nil {
		tags = make(Tags, 0, len(src.Tags))
		for _, tag := range src.Tags {
			tags = append(tags, Tag(tag))
		}
	}

	return BuildEvent(src.ID, src.PubKey, int64(src.CreatedAt), src.Kind, tags, src.Content, src.Sig)
}

// ToNostr converts the event back into its go-nostr representation.
func (e Event) ToNostr() *nostr.Event {
	var tags nostr.Tags
	if e.Tags != nil {
		tags = make(nostr.Tags, 0, len(e.Tags))
		for _, tag := range e.Tags {
			tags = append(tags, nostr.Tag(tag))
		}
	}

	return &nostr.Event{
		ID:        e.ID,
		PubKey:    e.PubKey,
		CreatedAt: nostr.Timestamp(e.CreatedAt),
		Kind:      e.Kind,
		Tags:      tags,
		Content:   e.Content,
		Sig:       e.Sig,
	}
}

// FilterFromNostr converts a go-nostr subscription filter into a Filter.
//
// go-nostr cannot express the present-but-empty limit distinction, so a zero
// Limit maps to "absent"; all slice criteria keep their nil/empty distinction.
func FilterFromNostr(src nostr.Filter) Filter {
	filter := Filter{
		IDs:     src.IDs,
		Authors: src.Authors,
		Kinds:   src.Kinds,
	}

	if src.Since != nil {
		since := int64(*src.Since)
		filter.Since = &since
	}

	if src.Until != nil {
		until := int64(*src.Until)
		filter.Until = &until
	}

	if src.Limit > 0 {
		limit := uint(src.Limit)
		filter.Limit = &limit
	}

	if src.Tags != nil {
		filter.Tags = make(TagFilters, len(src.Tags))
		for name, values := range src.Tags {
			filter.Tags[name] = values
		}
	}

	return filter
}

// FiltersFromNostr converts an ordered go-nostr filter list, preserving order.
func FiltersFromNostr(src nostr.Filters) Filters {
	filters := make(Filters, 0, len(src))
	for _, filter := range src {
		filters = append(filters, FilterFromNostr(filter))
	}

	return filters
}
