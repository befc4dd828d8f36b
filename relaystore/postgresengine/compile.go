package postgresengine

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import

	"github.com/nostrkit/relay-eventstore-go/relaystore"
)

const (
	castBytea = "decode(?, 'hex')"
	castJsonb = "?::jsonb"
)

// CompiledQuery is an immutable, lazily-executable query value. It carries
// only the generated SQL and no per-execution state, so the same value can be
// executed to completion, streamed, or both, any number of times and from any
// number of goroutines, without recompiling.
type CompiledQuery struct {
	sql sqlQueryString
}

// SQL returns the generated SQL text.
func (q CompiledQuery) SQL() string {
	return q.sql
}

// CompileQuery translates an ordered, non-empty list of subscription filters
// into one executable query.
//
// Each filter becomes a sub-query: its predicate as the WHERE clause (omitted
// entirely for an unconstrained filter), ordered descending by creation time
// and truncated when the filter has a limit, ordered ascending otherwise.
// A present limit of zero selects nothing at all.
// A single filter's sub-query is the final query verbatim. Two or more
// sub-queries are combined with UNION (set union, duplicates collapse) and the
// combined result is finally ordered ascending by creation time; a limited
// sub-query still selects its most-recent-N rows before that outer re-sort.
//
// An empty or nil filter list fails with relaystore.ErrNoFiltersSupplied
// before any SQL is built. Compilation is deterministic: identical filter
// lists always compile to identical SQL.
func (es EventStore) CompileQuery(filters relaystore.Filters) (CompiledQuery, error) {
	if len(filters) == 0 {
		return CompiledQuery{}, relaystore.ErrNoFiltersSupplied
	}

	subQueries := make([]*goqu.SelectDataset, 0, len(filters))

	for _, filter := range filters {
		subQuery, buildErr := es.buildFilterSubQuery(filter)
		if buildErr != nil {
			return CompiledQuery{}, buildErr
		}

		subQueries = append(subQueries, subQuery)
	}

	if len(subQueries) == 1 {
		return toCompiledQuery(subQueries[0])
	}

	combined := subQueries[0]
	for _, subQuery := range subQueries[1:] {
		combined = combined.Union(subQuery)
	}

	combined = combined.Order(goqu.I(colEventCreatedAt).Asc())

	return toCompiledQuery(combined)
}

func (es EventStore) buildFilterSubQuery(filter relaystore.Filter) (*goqu.SelectDataset, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(
			colEventID,
			colEventPubkey,
			colEventCreatedAt,
			colEventKind,
			colEventTags,
			colEventContent,
			colEventSig,
		)

	predicate, buildErr := buildFilterPredicate(filter)
	if buildErr != nil {
		return nil, buildErr
	}

	if predicate != nil {
		stmt = stmt.Where(predicate)
	}

	// A limited filter selects its most recently created rows; an unlimited
	// one replays in creation order. goqu treats Limit(0) as "no limit", so a
	// present-but-zero limit renders the contradiction predicate instead,
	// selecting nothing.
	switch {
	case filter.Limit != nil && *filter.Limit == 0:
		stmt = stmt.Where(goqu.L(sqlContradictionGrouped)).Order(goqu.I(colEventCreatedAt).Desc())
	case filter.Limit != nil:
		stmt = stmt.Order(goqu.I(colEventCreatedAt).Desc()).Limit(*filter.Limit)
	default:
		stmt = stmt.Order(goqu.I(colEventCreatedAt).Asc())
	}

	return stmt, nil
}

// InsertQuery builds the idempotent insert statement for one event without
// executing it. Re-running the resulting statement for an already-stored event
// id is a no-op, not an error.
func (es EventStore) InsertQuery(event relaystore.Event) (CompiledQuery, error) {
	row, buildRowErr := eventToRow(event)
	if buildRowErr != nil {
		return CompiledQuery{}, buildRowErr
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(es.eventTableName).
		Rows(row).
		OnConflict(goqu.DoNothing())

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return CompiledQuery{}, errors.Join(relaystore.ErrBuildingQueryFailed, toSQLErr)
	}

	return CompiledQuery{sql: sqlQuery}, nil
}

// eventToRow maps an event to its flat row representation. Binary identifiers
// are stored decoded, the delegator column is NULL when the event carries no
// delegation tag, and tags are stored as an order-preserving jsonb
// array-of-arrays.
func eventToRow(event relaystore.Event) (goqu.Record, error) {
	if validateErr := event.Validate(); validateErr != nil {
		return nil, errors.Join(relaystore.ErrBuildingQueryFailed, validateErr)
	}

	tagsJSON, marshalErr := event.MarshalTags()
	if marshalErr != nil {
		return nil, errors.Join(relaystore.ErrBuildingQueryFailed, marshalErr)
	}

	row := goqu.Record{
		colEventContent:   event.Content,
		colEventCreatedAt: event.CreatedAt,
		colEventDelegator: nil,
		colEventID:        goqu.L(castBytea, event.ID),
		colEventKind:      event.Kind,
		colEventPubkey:    goqu.L(castBytea, event.PubKey),
		colEventSig:       goqu.L(castBytea, event.Sig),
		colEventTags:      goqu.L(castJsonb, string(tagsJSON)),
	}

	if delegator := event.Delegator(); delegator != "" {
		row[colEventDelegator] = goqu.L(castBytea, delegator)
	}

	return row, nil
}

func toCompiledQuery(stmt *goqu.SelectDataset) (CompiledQuery, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return CompiledQuery{}, errors.Join(relaystore.ErrBuildingQueryFailed, toSQLErr)
	}

	return CompiledQuery{sql: sqlQuery}, nil
}
