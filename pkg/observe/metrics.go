// Package observe provides the logger's observability primitives:
// OpenTelemetry metrics for the control loop and the two-wire bus, a
// Prometheus exporter bridge and HTTP middleware.
//
// Tests should use [NewMetrics] with a custom [metric.MeterProvider] to
// avoid cross-test pollution.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/sample"
	"github.com/itohio/godatalog/pkg/scheduler"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/itohio/godatalog"

// Metrics holds all OpenTelemetry metric instruments. All fields are safe
// for concurrent use.
type Metrics struct {
	// SamplesAcquired counts sensor readings.
	SamplesAcquired metric.Int64Counter

	// SamplesRecorded counts logging ticks. Use with attribute:
	//   attribute.String("outcome", ...)
	SamplesRecorded metric.Int64Counter

	// Occupancy is the number of stored samples, read from the source
	// given to [Metrics.ObserveOccupancy] at collection time.
	Occupancy metric.Int64ObservableGauge

	// Temperature is the latest reading in degrees Celsius.
	Temperature metric.Float64Gauge

	// KeyEvents counts recognized key presses. Use with attribute:
	//   attribute.String("key", ...)
	KeyEvents metric.Int64Counter

	// SamplesExported counts lines sent over the serial link.
	SamplesExported metric.Int64Counter

	// BusTransactions counts two-wire bus transactions. Use with attributes:
	//   attribute.String("op", ...), attribute.String("status", ...)
	BusTransactions metric.Int64Counter

	// BusDuration tracks bus transaction latency.
	BusDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	meter metric.Meter
}

// busBuckets are histogram boundaries in seconds around the 5 ms write
// cycle of the memory.
var busBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
}

// httpBuckets are histogram boundaries in seconds for the status API.
var httpBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{meter: m}

	if met.SamplesAcquired, err = m.Int64Counter("datalog.samples.acquired",
		metric.WithDescription("Total temperature readings taken."),
	); err != nil {
		return nil, err
	}
	if met.SamplesRecorded, err = m.Int64Counter("datalog.samples.recorded",
		metric.WithDescription("Total logging ticks by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Occupancy, err = m.Int64ObservableGauge("datalog.occupancy",
		metric.WithDescription("Number of samples held in memory."),
	); err != nil {
		return nil, err
	}
	if met.Temperature, err = m.Float64Gauge("datalog.temperature",
		metric.WithDescription("Latest temperature reading."),
		metric.WithUnit("Cel"),
	); err != nil {
		return nil, err
	}
	if met.KeyEvents, err = m.Int64Counter("datalog.keys",
		metric.WithDescription("Total key presses by key."),
	); err != nil {
		return nil, err
	}
	if met.SamplesExported, err = m.Int64Counter("datalog.samples.exported",
		metric.WithDescription("Total samples sent over the serial link."),
	); err != nil {
		return nil, err
	}
	if met.BusTransactions, err = m.Int64Counter("datalog.bus.transactions",
		metric.WithDescription("Total two-wire bus transactions by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.BusDuration, err = m.Float64Histogram("datalog.bus.duration",
		metric.WithDescription("Latency of two-wire bus transactions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(busBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("datalog.http.request.duration",
		metric.WithDescription("Latency of HTTP requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Acquired implements [scheduler.Observer].
func (m *Metrics) Acquired(t sample.Temperature) {
	ctx := context.Background()
	m.SamplesAcquired.Add(ctx, 1)
	m.Temperature.Record(ctx, t.Celsius())
}

// Recorded implements [scheduler.Observer].
func (m *Metrics) Recorded(outcome collector.Outcome, _ collector.Status) {
	ctx := context.Background()
	m.SamplesRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
}

// ObserveOccupancy reports occupied() as the occupancy gauge on every
// collection, so erases and restarts show without waiting for a logging
// tick.
func (m *Metrics) ObserveOccupancy(occupied func() int) error {
	_, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.Occupancy, int64(occupied()))
		return nil
	}, m.Occupancy)
	return err
}

// KeyPressed implements [scheduler.Observer].
func (m *Metrics) KeyPressed(k keypad.Key) {
	m.KeyEvents.Add(context.Background(), 1, metric.WithAttributes(attribute.String("key", k.String())))
}

// Exported implements [scheduler.Observer].
func (m *Metrics) Exported(n int) {
	m.SamplesExported.Add(context.Background(), int64(n))
}

var _ scheduler.Observer = (*Metrics)(nil)
