package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// showSettingsDialog displays a settings dialog with tabs for the
// configuration sections the bench uses. The bench always exports to an
// in-process link, so serial settings belong to loggerd.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSensorTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 450))
	d.Show()
}

// save validates and persists the configuration, then restarts the logger
// so the new values take effect.
func (s *appState) save() {
	if err := s.cfg.Validate(); err != nil {
		dialog.ShowError(err, s.window)
		return
	}
	if err := s.cfg.Save(s.cfgPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), s.window)
		return
	}
	if s.running() {
		s.stop()
		s.start()
	}
}

// createSensorTab edits the sensor calibration.
func createSensorTab(state *appState) *container.TabItem {
	refEntry := widget.NewEntry()
	refEntry.SetText(strconv.FormatUint(uint64(state.cfg.Sensor.ReferenceMV), 10))

	bitsEntry := widget.NewEntry()
	bitsEntry.SetText(strconv.FormatUint(uint64(state.cfg.Sensor.ResolutionBits), 10))

	slopeEntry := widget.NewEntry()
	slopeEntry.SetText(strconv.FormatUint(uint64(state.cfg.Sensor.MVPerDegree), 10))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Reference (mV)", Widget: refEntry},
			{Text: "Resolution (bits)", Widget: bitsEntry},
			{Text: "Sensitivity (mV/°C)", Widget: slopeEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseUint(refEntry.Text, 10, 32); err == nil {
				state.cfg.Sensor.ReferenceMV = uint32(v)
			}
			if v, err := strconv.ParseUint(bitsEntry.Text, 10, 8); err == nil {
				state.cfg.Sensor.ResolutionBits = uint8(v)
			}
			if v, err := strconv.ParseUint(slopeEntry.Text, 10, 32); err == nil {
				state.cfg.Sensor.MVPerDegree = uint32(v)
			}
			state.save()
		},
	}

	return container.NewTabItem("Sensor", form)
}

// createMockTab edits the simulated sensor.
func createMockTab(state *appState) *container.TabItem {
	baseEntry := widget.NewEntry()
	baseEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.BaseCelsius))

	swingEntry := widget.NewEntry()
	swingEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.SwingCelsius))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.NoiseCelsius))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.Period.String())

	imageEntry := widget.NewEntry()
	imageEntry.SetText(state.cfg.Mock.EEPROMImage)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Base (°C)", Widget: baseEntry},
			{Text: "Swing (°C)", Widget: swingEntry},
			{Text: "Noise (°C)", Widget: noiseEntry},
			{Text: "Period", Widget: periodEntry},
			{Text: "EEPROM Image", Widget: imageEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(baseEntry.Text, 64); err == nil {
				state.cfg.Mock.BaseCelsius = v
			}
			if v, err := strconv.ParseFloat(swingEntry.Text, 64); err == nil {
				state.cfg.Mock.SwingCelsius = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseCelsius = v
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil {
				state.cfg.Mock.Period = d
			}
			wasRunning := state.running()
			state.stop()
			if err := state.switchImage(imageEntry.Text); err != nil {
				dialog.ShowError(err, state.window)
			}
			state.save()
			if wasRunning {
				state.start()
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
