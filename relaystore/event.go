package relaystore

import (
	"encoding/hex"
	"errors"
)

var ErrInvalidEventID = errors.New("event id must be a 64-character hex string")
var ErrInvalidEventPubKey = errors.New("event pubkey must be a 64-character hex string")
var ErrInvalidEventSignature = errors.New("event signature must be a 128-character hex string")
var ErrInvalidEventKind = errors.New("event kind must not be negative")
var ErrInvalidEventDelegator = errors.New("event delegator must be a 64-character hex string")

const (
	eventIDHexLength   = 64
	pubKeyHexLength    = 64
	signatureHexLength = 128

	delegationTagName = "delegation"
)

// Tag is an ordered sequence of strings whose first element is the tag name
// (e.g. "e", "p", "r") and whose second element, when present, is the tag's
// primary value.
type Tag []string

// Tags is the ordered tag list of an event. Order is significant and is
// preserved through storage round-trips.
type Tags []Tag

// Events is an alias type for a slice of Event.
type Events = []Event

// Event is a DTO (data transfer object) for one immutable, signed relay event.
//
// Identifiers are fixed-length hex strings at this boundary: ID and PubKey are
// 32 bytes (64 hex characters), Sig is 64 bytes (128 hex characters).
// CreatedAt is an author-asserted Unix timestamp in seconds.
//
// While its properties are exported, it should only be constructed with the
// BuildEvent factory method, which enforces the fixed-length invariants.
// Identity and signature verification happen upstream, before an event ever
// reaches this layer.
type Event struct {
	ID        string
	PubKey    string
	CreatedAt int64
	Kind      int
	Tags      Tags
	Content   string
	Sig       string
}

// BuildEvent is a factory method for Event.
//
// It populates the Event with the given scalar input and returns an error when
// one of the fixed-length hex invariants is violated.
func BuildEvent(
	id string,
	pubKey string,
	createdAt int64,
	kind int,
	tags Tags,
	content string,
	sig string,
) (Event, error) {

	event := Event{
		ID:        id,
		PubKey:    pubKey,
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
		Sig:       sig,
	}

	if err := event.Validate(); err != nil {
		return Event{}, err
	}

	return event, nil
}

// Validate checks the fixed-length hex invariants of the event, including the
// derived delegator when a delegation tag is present.
func (e Event) Validate() error {
	if !isFixedLengthHex(e.ID, eventIDHexLength) {
		return ErrInvalidEventID
	}

	if !isFixedLengthHex(e.PubKey, pubKeyHexLength) {
		return ErrInvalidEventPubKey
	}

	if !isFixedLengthHex(e.Sig, signatureHexLength) {
		return ErrInvalidEventSignature
	}

	if e.Kind < 0 {
		return ErrInvalidEventKind
	}

	if delegator := e.Delegator(); delegator != "" && !isFixedLengthHex(delegator, pubKeyHexLength) {
		return ErrInvalidEventDelegator
	}

	return nil
}

// Delegator returns the hex public key of the party that authorized the
// signer to publish this event on its behalf (NIP-26 style delegation tag),
// or the empty string when the event carries no delegation.
func (e Event) Delegator() string {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == delegationTagName {
			return tag[1]
		}
	}

	return ""
}

// MarshalTags serializes the tag list as an ordered array-of-arrays JSON
// encoding, preserving tag and element order exactly. A nil tag list
// serializes as the empty array.
func (e Event) MarshalTags() ([]byte, error) {
	if e.Tags == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(e.Tags)
}

func isFixedLengthHex(value string, length int) bool {
	if len(value) != length {
		return false
	}

	_, err := hex.DecodeString(value)

	return err == nil
}
