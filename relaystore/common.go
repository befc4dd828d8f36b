package relaystore

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

// json is the package-wide JSON codec; tag arrays and filter wire shapes are
// small and hot, so the drop-in jsoniter implementation is used everywhere.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyEventsTableName = errors.New("empty eventTableName supplied")

// ErrNoFiltersSupplied is returned when a subscription request arrives with
// no filters at all; an empty request must be rejected before any query is built.
var ErrNoFiltersSupplied = errors.New("at least one filter is required")

// ErrMalformedHexValue is returned when an id, author or tag criterion is not
// a valid hex string. The offending filter fails compilation as a whole, the
// criterion is never silently dropped.
var ErrMalformedHexValue = errors.New("malformed hex value")

var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrQueryingEventsFailed = errors.New("querying events failed")
var ErrScanningDBRowFailed = errors.New("scanning database row failed")
var ErrStoringEventFailed = errors.New("storing event failed")
var ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
