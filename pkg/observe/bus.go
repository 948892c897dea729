package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/itohio/godatalog/pkg/eeprom"
)

// Bus wraps an [eeprom.Bus] and records every transaction.
type Bus struct {
	next    eeprom.Bus
	metrics *Metrics
}

// InstrumentBus returns next wrapped with transaction metrics.
func InstrumentBus(next eeprom.Bus, m *Metrics) *Bus {
	return &Bus{next: next, metrics: m}
}

func (b *Bus) WriteBytes(addr byte, value []byte) error {
	start := time.Now()
	err := b.next.WriteBytes(addr, value)
	b.record("write", start, err)
	return err
}

func (b *Bus) ReadBytes(addr byte, num int) ([]byte, error) {
	start := time.Now()
	data, err := b.next.ReadBytes(addr, num)
	b.record("read", start, err)
	return data, err
}

func (b *Bus) record(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ctx := context.Background()
	b.metrics.BusTransactions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
	b.metrics.BusDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("op", op),
	))
}

var _ eeprom.Bus = (*Bus)(nil)
