// Command loggerd runs the data logger on a Linux board: memory and display
// on the I2C bus, the sensor behind an IIO ADC, export and remote keys on a
// serial port, and status, health and metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/dustin/go-humanize"
	"github.com/reef-pi/rpi/i2c"
	"golang.org/x/sync/errgroup"

	"github.com/itohio/godatalog/pkg/api"
	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/config"
	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/health"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/link"
	"github.com/itohio/godatalog/pkg/observe"
	"github.com/itohio/godatalog/pkg/rig"
	"github.com/itohio/godatalog/pkg/sample"
	"github.com/itohio/godatalog/pkg/scheduler"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func listPorts() int {
	ports, err := link.Ports()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loggerd: %v\n", err)
		return 1
	}
	for _, p := range ports {
		fmt.Println(p.Name)
	}
	return 0
}

func run() int {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Simulate memory, sensor and serial link")
		portFlag   = flag.String("p", "", "Serial port override (e.g., /dev/ttyUSB0)")
		listenFlag = flag.String("listen", "", "HTTP listen address override")
		portsFlag  = flag.Bool("list-ports", false, "List serial ports and exit")
	)
	flag.Parse()

	if *portsFlag {
		return listPorts()
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loggerd: %v\n", err)
		return 1
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *listenFlag != "" {
		cfg.HTTP.ListenAddr = *listenFlag
	}
	if *mockFlag {
		cfg.Sensor.Source = config.SourceSim
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mp, shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "loggerd",
		ServiceVersion: version,
	})
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
	}()
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		logger.Error("failed to create instruments", "error", err)
		return 1
	}

	hw, err := openHardware(cfg, *mockFlag, logger)
	if err != nil {
		logger.Error("failed to open hardware", "error", err)
		return 1
	}
	defer hw.Close()

	out := openLink(cfg, *mockFlag, logger)
	if err := out.Connect(); err != nil {
		logger.Error("failed to connect serial link", "port", cfg.Serial.Port, "error", err)
		return 1
	}
	defer out.Close()

	screen := display.NewScreen()
	keys := keypad.NewQueue(16)

	// The simulated part is always strapped to the default address.
	base := byte(cfg.I2C.EEPROMAddress)
	if *mockFlag {
		base = eeprom.BaseAddress
	}

	r, err := rig.New(rig.Parts{
		Bus:         observe.InstrumentBus(hw.bus, metrics),
		EEPROMBase:  base,
		ADC:         hw.adc,
		Calibration: cfg.Sensor.Calibration(),
		Text:        screen,
		Segments:    hw.segments,
		Out:         out,
		Keys:        keys,
		Observer:    metrics,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to assemble logger", "error", err)
		return 1
	}
	loop := r.Loop
	if err := metrics.ObserveOccupancy(func() int { return loop.Status().Occupied }); err != nil {
		logger.Error("failed to register occupancy gauge", "error", err)
		return 1
	}

	logger.Info("loggerd starting",
		"version", version,
		"config", *configFlag,
		"memory", humanize.Bytes(eeprom.Size),
		"capacity", humanize.Comma(collector.Capacity),
		"retention", (collector.Capacity * scheduler.SamplePeriod).String(),
		"sensor", cfg.Sensor.Source,
		"port", cfg.Serial.Port,
		"listen_addr", cfg.HTTP.ListenAddr,
	)

	checks := health.New(
		health.Fresh("sampling", func() time.Time { return loop.Status().SampledAt }, 3*scheduler.SamplePeriod),
		health.Flag("segments", func() bool { return loop.Status().SegmentsFailed }, "7-segment display not responding"),
		health.Flag("link", func() bool { return !out.IsConnected() }, "serial link down"),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return link.Forward(gctx, out.Keys(), keys) })

	if cfg.HTTP.ListenAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.ListenAddr,
			Handler:           api.Router(api.New(loop, screen, keys, logger), checks, metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("systemd notify failed", "error", err)
	}

	err = g.Wait()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("loggerd failed", "error", err)
		return 1
	}
	logger.Info("loggerd stopped", "occupied", r.Collector.Occupancy())
	return 0
}

// hardware holds the board-facing parts.
type hardware struct {
	bus      eeprom.Bus
	adc      sample.ADC
	segments display.Segments
	closers  []func() error
}

func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

func openHardware(cfg *config.Config, mock bool, logger *slog.Logger) (*hardware, error) {
	hw := &hardware{segments: &display.Latch{}}

	if mock {
		sim := eeprom.NewSim(nil)
		if img := cfg.Mock.EEPROMImage; img != "" {
			if err := sim.LoadFile(img); err != nil {
				return nil, err
			}
			hw.closers = append(hw.closers, func() error { return sim.SaveFile(img) })
		}
		hw.bus = sim
	} else {
		bus, err := i2c.New()
		if err != nil {
			return nil, fmt.Errorf("failed to open i2c bus: %w", err)
		}
		hw.bus = bus
		hw.closers = append(hw.closers, bus.Close)
		if cfg.I2C.Segments {
			hw.segments = display.NewMux(bus, cfg.I2C.SegmentsAddress)
		}
	}

	cal := cfg.Sensor.Calibration()
	switch cfg.Sensor.Source {
	case config.SourceIIO:
		hw.adc = sample.NewIIO(cfg.Sensor.IIOPath, logger)
	default:
		hw.adc = sample.NewSimADC(cfg.Mock.SimParams(), cal, nil)
	}
	hw.adc = sample.NewAveraging(hw.adc, cfg.Sensor.Oversample)
	return hw, nil
}

func openLink(cfg *config.Config, mock bool, logger *slog.Logger) link.Link {
	if mock {
		m := link.NewMock()
		m.OnLine(func(line string) { logger.Info("export", "line", line) })
		return m
	}
	return link.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, link.DefaultBufferSize, logger)
}
