package fixtures

import (
	"strings"

	"github.com/google/uuid"

	"github.com/nostrkit/relay-eventstore-go/relaystore"
)

const (
	// KindTextNote is the standard kind for plain text notes.
	KindTextNote = 1
	// KindContactList is the standard kind for contact lists.
	KindContactList = 3
)

// RandomHex32 returns a random 64-character hex string, usable as an event id
// or pubkey.
func RandomHex32() string {
	return hexFromUUIDs(2)
}

// RandomHex64 returns a random 128-character hex string, usable as a signature.
func RandomHex64() string {
	return hexFromUUIDs(4)
}

// hexFromUUIDs concatenates n dash-stripped random UUIDs into one hex string
// of 32*n characters.
func hexFromUUIDs(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}

	return sb.String()
}

// TextNoteEvent builds a valid text note event with random identifiers.
func TextNoteEvent(createdAt int64, content string) relaystore.Event {
	event, err := relaystore.BuildEvent(
		RandomHex32(),
		RandomHex32(),
		createdAt,
		KindTextNote,
		nil,
		content,
		RandomHex64(),
	)
	if err != nil {
		panic(err) // only possible with broken fixture code
	}

	return event
}

// EventWithPubKey builds a valid text note event signed by the given pubkey.
func EventWithPubKey(pubkey string, createdAt int64, content string) relaystore.Event {
	event, err := relaystore.BuildEvent(
		RandomHex32(),
		pubkey,
		createdAt,
		KindTextNote,
		nil,
		content,
		RandomHex64(),
	)
	if err != nil {
		panic(err)
	}

	return event
}

// DelegatedEvent builds a valid event signed by pubkey on behalf of delegator,
// carrying the delegation tag the author predicate matches on.
func DelegatedEvent(pubkey, delegator string, createdAt int64, content string) relaystore.Event {
	tags := relaystore.Tags{
		{"delegation", delegator, "kind=1", RandomHex64()},
	}

	event, err := relaystore.BuildEvent(
		RandomHex32(),
		pubkey,
		createdAt,
		KindTextNote,
		tags,
		content,
		RandomHex64(),
	)
	if err != nil {
		panic(err)
	}

	return event
}

// TaggedEvent builds a valid event carrying the given tags.
func TaggedEvent(createdAt int64, tags relaystore.Tags, content string) relaystore.Event {
	event, err := relaystore.BuildEvent(
		RandomHex32(),
		RandomHex32(),
		createdAt,
		KindTextNote,
		tags,
		content,
		RandomHex64(),
	)
	if err != nil {
		panic(err)
	}

	return event
}
