package sample

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// IIO reads a Linux industrial I/O channel such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type IIO struct {
	path   string
	last   uint16
	logger *slog.Logger
}

// Ensure IIO implements ADC.
var _ ADC = (*IIO)(nil)

// NewIIO creates a reader for the sysfs file at path.
func NewIIO(path string, logger *slog.Logger) *IIO {
	if logger == nil {
		logger = slog.Default()
	}
	return &IIO{path: path, logger: logger}
}

// Get returns the current raw value. A failed read keeps the previous value.
func (a *IIO) Get() uint16 {
	data, err := os.ReadFile(a.path)
	if err != nil {
		a.logger.Warn("adc read failed", "path", a.path, "err", err)
		return a.last
	}

	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		a.logger.Warn("adc value invalid", "path", a.path, "value", strings.TrimSpace(string(data)), "err", err)
		return a.last
	}

	a.last = uint16(v)
	return a.last
}
