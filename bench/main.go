package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/godatalog/pkg/config"
	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/link"
	"github.com/itohio/godatalog/pkg/rig"
	"github.com/itohio/godatalog/pkg/sample"
	"github.com/itohio/godatalog/pkg/scheduler"
	"github.com/itohio/godatalog/pkg/scope"
	"github.com/itohio/godatalog/pkg/trend"
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		imageFlag  = flag.String("image", "", "Simulated EEPROM image override")
		speedFlag  = flag.Int("speed", 1, "Time acceleration of the sampling clock")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *imageFlag != "" {
		cfg.Mock.EEPROMImage = *imageFlag
	}

	application := app.NewWithID("com.itohio.godatalog.bench")
	window := application.NewWindow("Data Logger Bench")
	window.Resize(fyne.NewSize(1200, 700))
	window.CenterOnScreen()

	state := &appState{
		cfg:     cfg,
		cfgPath: *configFlag,
		speed:   max(*speedFlag, 1),
		window:  window,
		logger:  cfg.Log.NewLogger(os.Stderr),
		sim:     eeprom.NewSim(nil),
		screen:  display.NewScreen(),
		latch:   &display.Latch{},
		keys:    keypad.NewQueue(16),
		trend:   trend.New(trend.DefaultWindow, nil),
	}
	if err := state.loadImage(); err != nil {
		log.Fatalf("Failed to load EEPROM image: %v", err)
	}

	state.scopeWidget = scope.New(state.trend.Window())
	state.trend.OnUpdate(func(points []trend.Point, rates []float64) {
		fyne.Do(func() {
			state.scopeWidget.UpdateData(points, rates)
		})
	})

	toolbar := createToolbar(state)
	panel := createPanel(state)

	split := container.NewHSplit(panel, state.scopeWidget)
	split.Offset = 0.3
	window.SetContent(container.NewBorder(toolbar, nil, nil, nil, split))

	window.SetCloseIntercept(func() {
		state.stop()
		if err := state.saveImage(); err != nil {
			state.logger.Error("failed to save EEPROM image", "error", err)
		}
		window.Close()
	})

	state.start()
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg     *config.Config
	cfgPath string
	speed   int
	window  fyne.Window
	logger  *slog.Logger

	sim    *eeprom.Sim
	screen *display.Screen
	latch  *display.Latch
	keys   *keypad.Queue
	trend  *trend.Trend

	scopeWidget *scope.ScopeWidget
	runBtn      *widget.Button
	exportList  *widget.List

	mu      sync.Mutex
	lines   []string
	current *rig.Rig
	cancel  context.CancelFunc
	done    chan struct{}
}

// createToolbar creates the toolbar with Run, Settings, Save and Clear buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	runBtn := widget.NewButtonWithIcon("", theme.MediaStopIcon(), func() {
		if state.running() {
			state.stop()
		} else {
			state.start()
		}
	})
	state.runBtn = runBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	saveBtn := widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), func() {
		if err := state.saveImage(); err != nil {
			dialog.ShowError(err, state.window)
		}
	})

	clearBtn := widget.NewButtonWithIcon("", theme.ContentClearIcon(), func() {
		state.mu.Lock()
		state.lines = nil
		state.mu.Unlock()
		state.exportList.Refresh()
	})

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(runBtn, settingsBtn, saveBtn),
		container.NewHBox(clearBtn),
		nil,
	)
}

func (s *appState) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// start assembles a logger on the simulated parts and runs its loop.
func (s *appState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	cal := s.cfg.Sensor.Calibration()
	out := link.NewMock()
	if err := out.Connect(); err != nil {
		dialog.ShowError(err, s.window)
		return
	}
	out.OnLine(s.appendLine)

	r, err := rig.New(rig.Parts{
		Bus:         s.sim,
		ADC:         sample.NewAveraging(sample.NewSimADC(s.cfg.Mock.SimParams(), cal, nil), s.cfg.Sensor.Oversample),
		Calibration: cal,
		Text:        s.screen,
		Segments:    s.latch,
		Out:         out,
		Keys:        s.keys,
		Observer:    s.trend,
		Logger:      s.logger,
	})
	if err != nil {
		out.Close()
		dialog.ShowError(fmt.Errorf("failed to assemble logger: %w", err), s.window)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.current, s.cancel, s.done = r, cancel, done

	if s.speed > 1 {
		go accelerate(ctx, r.Loop.Ticks(), s.speed-1)
	}
	go func() {
		defer close(done)
		defer out.Close()
		if err := r.Loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("control loop failed", "error", err)
		}
	}()

	s.runBtn.SetIcon(theme.MediaStopIcon())
}

// stop cancels the running loop and waits for it to exit.
func (s *appState) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done, s.current = nil, nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.runBtn.SetIcon(theme.MediaPlayIcon())
}

// accelerate adds extra ticks to every base tick.
func accelerate(ctx context.Context, ticks *scheduler.TickCounter, extra int) {
	ticker := time.NewTicker(scheduler.BaseTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for range extra {
				ticks.Inc()
			}
		}
	}
}

func (s *appState) appendLine(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()

	fyne.Do(func() {
		s.exportList.Refresh()
		s.exportList.ScrollToBottom()
	})
}

func (s *appState) exportLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

func (s *appState) loadImage() error {
	if s.cfg.Mock.EEPROMImage == "" {
		return nil
	}
	return s.sim.LoadFile(s.cfg.Mock.EEPROMImage)
}

// switchImage saves the memory to its current image and replaces the part
// with one loaded from path. The loop must be stopped.
func (s *appState) switchImage(path string) error {
	if path == s.cfg.Mock.EEPROMImage {
		return nil
	}
	if err := s.saveImage(); err != nil {
		return err
	}

	sim := eeprom.NewSim(nil)
	if path != "" {
		if err := sim.LoadFile(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	s.sim = sim
	s.cfg.Mock.EEPROMImage = path
	return nil
}

func (s *appState) saveImage() error {
	if s.cfg.Mock.EEPROMImage == "" {
		return nil
	}
	if err := s.sim.SaveFile(s.cfg.Mock.EEPROMImage); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.cfg.Mock.EEPROMImage, err)
	}
	return nil
}

