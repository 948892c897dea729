package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/sample"
)

var (
	lcdBackground = color.RGBA{R: 40, G: 70, B: 30, A: 255}
	lcdForeground = color.RGBA{R: 200, G: 240, B: 180, A: 255}
	ledBackground = color.RGBA{R: 15, G: 15, B: 15, A: 255}
	ledForeground = color.RGBA{R: 255, G: 40, B: 20, A: 255}
)

// createPanel builds the front panel: readout, text display, keypad and the
// list of exported lines.
func createPanel(state *appState) fyne.CanvasObject {
	readout := canvas.NewText(display.Format(sample.Digits{}), ledForeground)
	readout.TextSize = 40
	readout.TextStyle = fyne.TextStyle{Monospace: true, Bold: true}
	readout.Alignment = fyne.TextAlignCenter

	var rows [display.Height]*canvas.Text
	lcd := container.NewVBox()
	for i := range rows {
		rows[i] = canvas.NewText("", lcdForeground)
		rows[i].TextSize = 18
		rows[i].TextStyle = fyne.TextStyle{Monospace: true}
		lcd.Add(rows[i])
	}

	state.latch.OnChange(func(d sample.Digits) {
		fyne.Do(func() {
			readout.Text = display.Format(d)
			readout.Refresh()
		})
	})
	state.screen.OnChange(func(lines [display.Height]string) {
		fyne.Do(func() { setRows(rows, lines) })
	})
	setRows(rows, state.screen.Lines())

	state.exportList = widget.NewList(
		func() int { return len(state.exportLines()) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("00.00")
			l.TextStyle = fyne.TextStyle{Monospace: true}
			return l
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			lines := state.exportLines()
			if id < len(lines) {
				obj.(*widget.Label).SetText(lines[id])
			}
		},
	)

	front := container.NewVBox(
		container.NewStack(canvas.NewRectangle(ledBackground), readout),
		container.NewStack(canvas.NewRectangle(lcdBackground), container.NewPadded(lcd)),
		createKeypad(state.keys),
	)
	return container.NewBorder(front, nil, nil, nil, widget.NewCard("Export", "", state.exportList))
}

func setRows(rows [display.Height]*canvas.Text, lines [display.Height]string) {
	for i, l := range lines {
		rows[i].Text = l
		rows[i].Refresh()
	}
}

// createKeypad lays out the operator keys in the same 4x3 matrix as the
// hardware. Presses are queued for the control loop.
func createKeypad(keys *keypad.Queue) fyne.CanvasObject {
	grid := container.NewGridWithColumns(len(keypad.Layout[0]))
	for _, row := range keypad.Layout {
		for _, k := range row {
			grid.Add(widget.NewButton(k.String(), func() {
				keys.Push(k)
			}))
		}
	}
	return grid
}
