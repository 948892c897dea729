package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/sample"
)

// Sensor sources.
const (
	SourceSim = "sim"
	SourceIIO = "iio"
)

// Config represents the host daemon configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	I2C    I2CConfig    `yaml:"i2c"`
	Sensor SensorConfig `yaml:"sensor"`
	Mock   MockConfig   `yaml:"mock"`
	HTTP   HTTPConfig   `yaml:"http"`
	Log    LogConfig    `yaml:"log"`
}

// SerialConfig contains the export port configuration. An empty port
// disables the serial link.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// I2CConfig contains the two-wire bus peripherals.
type I2CConfig struct {
	EEPROMAddress   uint8 `yaml:"eeprom_address"`
	SegmentsAddress uint8 `yaml:"segments_address"`
	Segments        bool  `yaml:"segments"` // Drive the 7-segment port expander
}

// SensorConfig selects the temperature source and its static calibration.
type SensorConfig struct {
	Source         string `yaml:"source"`   // sim or iio
	IIOPath        string `yaml:"iio_path"` // sysfs raw value file
	ReferenceMV    uint32 `yaml:"reference_mv"`
	ResolutionBits uint8  `yaml:"resolution_bits"`
	MVPerDegree    uint32 `yaml:"mv_per_degree"`
	Oversample     int    `yaml:"oversample"` // Readings averaged per sample, 0 or 1 disables
}

// Calibration returns the sensor calibration.
func (s SensorConfig) Calibration() sample.Calibration {
	return sample.Calibration{
		ReferenceMillivolts: s.ReferenceMV,
		ResolutionBits:      s.ResolutionBits,
		MillivoltsPerDegree: s.MVPerDegree,
	}
}

// MockConfig contains the simulated peripherals.
type MockConfig struct {
	EEPROMImage  string        `yaml:"eeprom_image"`  // Persisted simulated memory, empty keeps it in RAM
	BaseCelsius  float64       `yaml:"base_celsius"`  // Mean simulated temperature
	SwingCelsius float64       `yaml:"swing_celsius"` // Amplitude of the slow swing
	Period       time.Duration `yaml:"period"`        // Period of the slow swing
	NoiseCelsius float64       `yaml:"noise_celsius"` // Amplitude of the ripple
}

// SimParams returns the simulated sensor parameters.
func (m MockConfig) SimParams() sample.SimParams {
	return sample.SimParams{
		BaseCelsius:  m.BaseCelsius,
		SwingCelsius: m.SwingCelsius,
		Period:       m.Period,
		NoiseCelsius: m.NoiseCelsius,
	}
}

// HTTPConfig contains the status and metrics endpoint.
type HTTPConfig struct {
	ListenAddr string `yaml:"listen_addr"` // Empty disables the HTTP server
}

// LogConfig contains logging options.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// NewLogger builds a slog.Logger writing to w at the configured level
// and format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 9600,
		},
		I2C: I2CConfig{
			EEPROMAddress:   eeprom.BaseAddress,
			SegmentsAddress: display.MuxAddress,
			Segments:        true,
		},
		Sensor: SensorConfig{
			Source:         SourceSim,
			IIOPath:        "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
			ReferenceMV:    sample.LM35.ReferenceMillivolts,
			ResolutionBits: sample.LM35.ResolutionBits,
			MVPerDegree:    sample.LM35.MillivoltsPerDegree,
		},
		Mock: MockConfig{
			EEPROMImage:  "",
			BaseCelsius:  22.5,
			SwingCelsius: 2.0,
			Period:       10 * time.Minute,
			NoiseCelsius: 0.1,
		},
		HTTP: HTTPConfig{
			ListenAddr: ":9110",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	switch c.Sensor.Source {
	case SourceSim:
	case SourceIIO:
		if c.Sensor.IIOPath == "" {
			errs = append(errs, errors.New("sensor.iio_path is required for the iio source"))
		}
	default:
		errs = append(errs, fmt.Errorf("sensor.source %q is not one of %q, %q", c.Sensor.Source, SourceSim, SourceIIO))
	}

	if err := c.Sensor.Calibration().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sensor: %w", err))
	}

	if c.Sensor.Oversample < 0 || c.Sensor.Oversample > 64 {
		errs = append(errs, fmt.Errorf("sensor.oversample %d must be within 0..64", c.Sensor.Oversample))
	}

	if c.I2C.EEPROMAddress&0x07 != 0 || c.I2C.EEPROMAddress > 0x7F {
		errs = append(errs, fmt.Errorf("i2c.eeprom_address %#x must be a 7-bit address with the block bits clear", c.I2C.EEPROMAddress))
	}
	if c.I2C.SegmentsAddress > 0x7F {
		errs = append(errs, fmt.Errorf("i2c.segments_address %#x is not a 7-bit address", c.I2C.SegmentsAddress))
	}

	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud_rate %d must be positive", c.Serial.BaudRate))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.I2C.EEPROMAddress == 0 {
		c.I2C.EEPROMAddress = def.I2C.EEPROMAddress
	}
	if c.I2C.SegmentsAddress == 0 {
		c.I2C.SegmentsAddress = def.I2C.SegmentsAddress
	}

	if c.Sensor.Source == "" {
		c.Sensor.Source = def.Sensor.Source
	}
	if c.Sensor.IIOPath == "" {
		c.Sensor.IIOPath = def.Sensor.IIOPath
	}
	if c.Sensor.ReferenceMV == 0 {
		c.Sensor.ReferenceMV = def.Sensor.ReferenceMV
	}
	if c.Sensor.ResolutionBits == 0 {
		c.Sensor.ResolutionBits = def.Sensor.ResolutionBits
	}
	if c.Sensor.MVPerDegree == 0 {
		c.Sensor.MVPerDegree = def.Sensor.MVPerDegree
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}
