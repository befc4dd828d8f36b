package postgresengine

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/nostrkit/relay-eventstore-go/relaystore"
)

const (
	spanNameQuery  = "relaystore.query"
	spanNameCreate = "relaystore.create"

	operationQuery  = "query"
	operationStream = "stream"
	operationCreate = "create"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeDatabase = "database"
	errorTypeScan     = "scan"

	spanAttrOperation    = "operation"
	spanAttrEventCount   = "event_count"
	spanAttrRowsAffected = "rows_affected"
	spanAttrErrorType    = "error_type"
	spanAttrDurationMS   = "duration_ms"

	metricQueryDuration   = "relaystore_query_duration_seconds"
	metricCreateDuration  = "relaystore_create_duration_seconds"
	metricEventsQueried   = "relaystore_events_queried"
	metricDuplicateEvents = "relaystore_duplicate_events_total"
	metricDatabaseErrors  = "relaystore_database_errors_total"
)

// logQueryWithDuration logs SQL queries with execution time at debug level.
// The contextual logger takes precedence when both loggers are configured.
func (es EventStore) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)

		return
	}

	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (es EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at error level.
func (es EventStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if es.logger != nil {
		es.logger.Error(message, allArgs...)
	}
}

// logWarn logs non-critical issues at warn level.
func (es EventStore) logWarn(ctx context.Context, message string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.WarnContext(ctx, message, args...)
		return
	}

	if es.logger != nil {
		es.logger.Warn(message, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func itoa(value int) string {
	return strconv.Itoa(value)
}

func itoa64(value int64) string {
	return strconv.FormatInt(value, 10)
}

// startSpan starts a tracing span if the tracing collector is configured.
func (es EventStore) startSpan(ctx context.Context, spanName, operation string) (context.Context, relaystore.SpanContext) {
	if es.tracingCollector == nil {
		return ctx, nil
	}

	return es.tracingCollector.StartSpan(ctx, spanName, map[string]string{
		spanAttrOperation: operation,
	})
}

// finishSpanSuccess finishes a tracing span with success status and result attributes.
func (es EventStore) finishSpanSuccess(span relaystore.SpanContext, attrs map[string]string) {
	if es.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(statusSuccess)
	for key, value := range attrs {
		span.AddAttribute(key, value)
	}

	es.tracingCollector.FinishSpan(span, statusSuccess, attrs)
}

// finishSpanError finishes a tracing span with error details.
func (es EventStore) finishSpanError(span relaystore.SpanContext, errorType string) {
	if es.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(statusError)
	span.AddAttribute(spanAttrErrorType, errorType)

	es.tracingCollector.FinishSpan(span, statusError, map[string]string{spanAttrErrorType: errorType})
}

// recordOperationError records the duration and error counter for a failed operation.
func (es EventStore) recordOperationError(ctx context.Context, operation, errorType string, duration time.Duration) {
	if es.metricsCollector == nil {
		return
	}

	es.recordDuration(ctx, durationMetricFor(operation), duration, operation, statusError)

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := es.metricsCollector.(relaystore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		es.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// recordQuerySuccess records the duration and result size for a successful
// query or stream start.
func (es EventStore) recordQuerySuccess(ctx context.Context, operation string, eventCount int, duration time.Duration) {
	if es.metricsCollector == nil {
		return
	}

	es.recordDuration(ctx, metricQueryDuration, duration, operation, statusSuccess)

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusSuccess,
	}

	if contextualCollector, ok := es.metricsCollector.(relaystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricEventsQueried, float64(eventCount), labels)
	} else {
		es.metricsCollector.RecordValue(metricEventsQueried, float64(eventCount), labels)
	}
}

// recordCreateSuccess records the duration of a successful event write.
func (es EventStore) recordCreateSuccess(ctx context.Context, duration time.Duration) {
	if es.metricsCollector == nil {
		return
	}

	es.recordDuration(ctx, metricCreateDuration, duration, operationCreate, statusSuccess)
}

// recordDuplicateEvent counts an insert that hit an already-stored event id.
func (es EventStore) recordDuplicateEvent(ctx context.Context) {
	if es.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operationCreate,
	}

	if contextualCollector, ok := es.metricsCollector.(relaystore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDuplicateEvents, labels)
	} else {
		es.metricsCollector.IncrementCounter(metricDuplicateEvents, labels)
	}
}

// recordDuration records a duration metric, using the context-aware collector
// method when available.
func (es EventStore) recordDuration(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	operation, status string,
) {
	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := es.metricsCollector.(relaystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
	} else {
		es.metricsCollector.RecordDuration(metricName, duration, labels)
	}
}

func durationMetricFor(operation string) string {
	if operation == operationCreate {
		return metricCreateDuration
	}

	return metricQueryDuration
}
