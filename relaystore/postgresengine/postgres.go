package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/nostrkit/relay-eventstore-go/relaystore"
	"github.com/nostrkit/relay-eventstore-go/relaystore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName = "events"
	dialectPostgres       = "postgres"

	colEventID        = "event_id"
	colEventPubkey    = "event_pubkey"
	colEventDelegator = "event_delegator"
	colEventKind      = "event_kind"
	colEventCreatedAt = "event_created_at"
	colEventTags      = "event_tags"
	colEventContent   = "event_content"
	colEventSig       = "event_sig"

	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database execution failed during event create"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgQueryCompleted     = "query completed"
	logMsgStreamStarted      = "stream started"
	logMsgEventCreated       = "event created"
	logMsgDuplicateEvent     = "duplicate event ignored"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "relaystore operation: "

	logAttrError       = "error"
	logAttrQuery       = "query"
	logAttrEventID     = "event_id"
	logAttrEventCount  = "event_count"
	logAttrDurationMS  = "duration_ms"
	logAttrFilterCount = "filter_count"

	logActionQuery  = "query"
	logActionStream = "stream"
	logActionCreate = "create"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventStore is the Postgres-backed repository for relay events: it compiles
// subscription filters into SQL, executes or streams the result, and performs
// idempotent event writes. It leverages a database adapter and supports
// customizable logging, metrics, tracing and event table configuration.
//
// Compilation is pure and side-effect free; an EventStore value is safe for
// concurrent use from any number of goroutines.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	logger           relaystore.Logger
	contextualLogger relaystore.ContextualLogger
	metricsCollector relaystore.MetricsCollector
	tracingCollector relaystore.TracingCollector
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx pool with
// optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, relaystore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolWithReplica creates a new EventStore using a primary
// pgx pool for writes and a replica pool for reads.
func NewEventStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, relaystore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional
// configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, relaystore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional
// configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, relaystore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// FindByFilters compiles the ordered filter list and executes it to
// completion, returning all matching events in the compiled query's order.
func (es EventStore) FindByFilters(ctx context.Context, filters relaystore.Filters) (relaystore.Events, error) {
	query, compileErr := es.CompileQuery(filters)
	if compileErr != nil {
		es.logError(ctx, logMsgBuildQueryFailed, compileErr, logAttrFilterCount, len(filters))
		return nil, compileErr
	}

	return es.ExecuteQuery(ctx, query)
}

// ExecuteQuery executes a previously compiled query to completion and returns
// the buffered result. The compilation work is not repeated.
func (es EventStore) ExecuteQuery(ctx context.Context, query CompiledQuery) (relaystore.Events, error) {
	spanCtx, span := es.startSpan(ctx, spanNameQuery, operationQuery)

	start := time.Now()
	rows, queryErr := es.db.Query(spanCtx, query.SQL())
	duration := time.Since(start)
	es.logQueryWithDuration(spanCtx, query.SQL(), logActionQuery, duration)

	if queryErr != nil {
		joinedErr := errors.Join(relaystore.ErrQueryingEventsFailed, queryErr)
		es.logError(spanCtx, logMsgDBQueryFailed, joinedErr, logAttrQuery, query.SQL())
		es.recordOperationError(spanCtx, operationQuery, errorTypeDatabase, duration)
		es.finishSpanError(span, errorTypeDatabase)

		return nil, joinedErr
	}
	defer es.closeRows(spanCtx, rows)

	events := make(relaystore.Events, 0)

	for rows.Next() {
		event, scanErr := scanEventRow(rows)
		if scanErr != nil {
			es.logError(spanCtx, logMsgScanRowFailed, scanErr)
			es.recordOperationError(spanCtx, operationQuery, errorTypeScan, duration)
			es.finishSpanError(span, errorTypeScan)

			return nil, scanErr
		}

		events = append(events, event)
	}

	es.logOperation(spanCtx, logMsgQueryCompleted,
		logAttrEventCount, len(events),
		logAttrDurationMS, toMilliseconds(duration))
	es.recordQuerySuccess(spanCtx, operationQuery, len(events), duration)
	es.finishSpanSuccess(span, map[string]string{spanAttrEventCount: itoa(len(events))})

	return events, nil
}

// StreamByFilters compiles the ordered filter list and returns a cursor for
// incremental, row-by-row consumption of the result.
func (es EventStore) StreamByFilters(ctx context.Context, filters relaystore.Filters) (*EventCursor, error) {
	query, compileErr := es.CompileQuery(filters)
	if compileErr != nil {
		es.logError(ctx, logMsgBuildQueryFailed, compileErr, logAttrFilterCount, len(filters))
		return nil, compileErr
	}

	return es.StreamQuery(ctx, query)
}

// StreamQuery starts executing a previously compiled query and returns a
// cursor that yields events as rows arrive. Abandoning the cursor (Close)
// abandons the underlying execution; the compiled query itself carries no
// per-execution state and may be streamed again.
func (es EventStore) StreamQuery(ctx context.Context, query CompiledQuery) (*EventCursor, error) {
	start := time.Now()
	rows, queryErr := es.db.Query(ctx, query.SQL())
	duration := time.Since(start)
	es.logQueryWithDuration(ctx, query.SQL(), logActionStream, duration)

	if queryErr != nil {
		joinedErr := errors.Join(relaystore.ErrQueryingEventsFailed, queryErr)
		es.logError(ctx, logMsgDBQueryFailed, joinedErr, logAttrQuery, query.SQL())
		es.recordOperationError(ctx, operationStream, errorTypeDatabase, duration)

		return nil, joinedErr
	}

	es.logOperation(ctx, logMsgStreamStarted, logAttrDurationMS, toMilliseconds(duration))

	return &EventCursor{rows: rows}, nil
}

// Create persists the event idempotently and returns the number of rows
// actually written: 1 for a new event, 0 when an event with the same id is
// already stored (the expected conflict outcome, not an error). Genuine
// execution failures from the store surface unmodified, joined with
// relaystore.ErrStoringEventFailed; nothing is retried here.
func (es EventStore) Create(ctx context.Context, event relaystore.Event) (rowsAffectedInt64, error) {
	query, buildErr := es.InsertQuery(event)
	if buildErr != nil {
		es.logError(ctx, logMsgBuildQueryFailed, buildErr, logAttrEventID, event.ID)
		return 0, buildErr
	}

	spanCtx, span := es.startSpan(ctx, spanNameCreate, operationCreate)

	start := time.Now()
	result, execErr := es.db.Exec(spanCtx, query.SQL())
	duration := time.Since(start)
	es.logQueryWithDuration(spanCtx, query.SQL(), logActionCreate, duration)

	if execErr != nil {
		joinedErr := errors.Join(relaystore.ErrStoringEventFailed, execErr)
		es.logError(spanCtx, logMsgDBExecFailed, joinedErr, logAttrQuery, query.SQL())
		es.recordOperationError(spanCtx, operationCreate, errorTypeDatabase, duration)
		es.finishSpanError(span, errorTypeDatabase)

		return 0, joinedErr
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		joinedErr := errors.Join(relaystore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
		es.logError(spanCtx, logMsgRowsAffectedFailed, joinedErr)
		es.recordOperationError(spanCtx, operationCreate, errorTypeDatabase, duration)
		es.finishSpanError(span, errorTypeDatabase)

		return 0, joinedErr
	}

	if rowsAffected == 0 {
		es.logOperation(spanCtx, logMsgDuplicateEvent, logAttrEventID, event.ID)
		es.recordDuplicateEvent(spanCtx)
	} else {
		es.logOperation(spanCtx, logMsgEventCreated,
			logAttrEventID, event.ID,
			logAttrDurationMS, toMilliseconds(duration))
	}

	es.recordCreateSuccess(spanCtx, duration)
	es.finishSpanSuccess(span, map[string]string{spanAttrRowsAffected: itoa64(rowsAffected)})

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (es EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}
