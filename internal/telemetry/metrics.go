package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "vet1stop-platform"

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	RequestCounter       metric.Int64Counter
	RequestDuration      metric.Float64Histogram
	DatabaseOperations   metric.Int64Counter
	ResourcesMoved       metric.Int64Counter
	CategorizationResult metric.Int64Counter
	BreakerStateChanges  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	databaseOperations, err := meter.Int64Counter(
		"database.operations.total",
		metric.WithDescription("Total database operations"),
	)
	if err != nil {
		return nil, err
	}

	resourcesMoved, err := meter.Int64Counter(
		"reclassify.resources.moved",
		metric.WithDescription("Resources moved out of the undefined partition"),
	)
	if err != nil {
		return nil, err
	}

	categorization, err := meter.Int64Counter(
		"reclassify.outcomes.total",
		metric.WithDescription("Per-record reclassification outcomes"),
	)
	if err != nil {
		return nil, err
	}

	breakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:       requestCounter,
		RequestDuration:      requestDuration,
		DatabaseOperations:   databaseOperations,
		ResourcesMoved:       resourcesMoved,
		CategorizationResult: categorization,
		BreakerStateChanges:  breakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordDatabaseOperation records database operation metrics
func (m *Metrics) RecordDatabaseOperation(operation, collection string, success bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
		attribute.Bool("db.success", success),
	}

	m.DatabaseOperations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordMove records one record moved into category
func (m *Metrics) RecordMove(category string) {
	if m == nil {
		return
	}
	m.ResourcesMoved.Add(context.Background(), 1, metric.WithAttributes(attribute.String("category", category)))
}

// RecordOutcome records a reclassification outcome (moved, uncategorized, failed, partial)
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.CategorizationResult.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.BreakerStateChanges.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
