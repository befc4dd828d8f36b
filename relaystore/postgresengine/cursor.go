package postgresengine

import (
	"encoding/hex"
	"errors"

	"github.com/nostrkit/relay-eventstore-go/relaystore"

	"github.com/nostrkit/relay-eventstore-go/relaystore/postgresengine/internal/adapters"
)

// EventCursor provides incremental, row-by-row access to a query result as it
// arrives from the database.
//
// Usage follows the sql.Rows convention:
//
//	cursor, err := store.StreamByFilters(ctx, filters)
//	if err != nil { ... }
//	defer cursor.Close()
//	for cursor.Next() {
//		event := cursor.Event()
//		...
//	}
//	if err := cursor.Err(); err != nil { ... }
//
// Closing the cursor abandons the underlying execution; no other cleanup is
// required to cancel a streaming consumption.
type EventCursor struct {
	rows    adapters.DBRows
	current relaystore.Event
	err     error
}

// Next advances to the next event. It returns false when the result is
// exhausted or a row failed to decode; Err distinguishes the two.
func (c *EventCursor) Next() bool {
	if c.err != nil {
		return false
	}

	if !c.rows.Next() {
		return false
	}

	event, scanErr := scanEventRow(c.rows)
	if scanErr != nil {
		c.err = scanErr
		return false
	}

	c.current = event

	return true
}

// Event returns the event produced by the last successful Next call.
func (c *EventCursor) Event() relaystore.Event {
	return c.current
}

// Err returns the first decoding error encountered, if any.
func (c *EventCursor) Err() error {
	return c.err
}

// Close releases the underlying rows. It is safe to call before exhaustion to
// abandon the stream.
func (c *EventCursor) Close() error {
	return c.rows.Close()
}

// scanEventRow decodes one database row back into an event: binary
// identifiers are hex-encoded at the boundary and the jsonb tag column is
// decoded into the ordered tag list.
func scanEventRow(rows adapters.DBRows) (relaystore.Event, error) {
	var (
		id        []byte
		pubkey    []byte
		createdAt int64
		kind      int
		tagsJSON  []byte
		content   string
		sig       []byte
	)

	if scanErr := rows.Scan(&id, &pubkey, &createdAt, &kind, &tagsJSON, &content, &sig); scanErr != nil {
		return relaystore.Event{}, errors.Join(relaystore.ErrScanningDBRowFailed, scanErr)
	}

	var tags relaystore.Tags
	if len(tagsJSON) > 0 {
		if unmarshalErr := json.Unmarshal(tagsJSON, &tags); unmarshalErr != nil {
			return relaystore.Event{}, errors.Join(relaystore.ErrScanningDBRowFailed, unmarshalErr)
		}
	}

	return relaystore.Event{
		ID:        hex.EncodeToString(id),
		PubKey:    hex.EncodeToString(pubkey),
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
		Sig:       hex.EncodeToString(sig),
	}, nil
}
