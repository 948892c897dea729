package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/godatalog/pkg/trend"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	tempColor  = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	rateColor  = color.RGBA{R: 100, G: 200, B: 255, A: 255}
)

type scopeRenderer struct {
	scope *ScopeWidget

	grid      *canvas.Rectangle
	rateLabel *canvas.Text

	objects  []fyne.CanvasObject
	lastSize fyne.Size
}

// plot maps data coordinates into the drawing area.
type plot struct {
	x, y, w, h float32
	xMin, xMax time.Time
}

func (p plot) px(t time.Time) float32 {
	d := p.xMax.Sub(p.xMin).Seconds()
	if d <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/d)*p.w
}

func (p plot) py(v, lo, hi float64) float32 {
	return p.y + p.h - float32((v-lo)/(hi-lo))*p.h
}

func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

func (r *scopeRenderer) Refresh() {
	s := r.scope
	s.mu.RLock()
	points := s.displayPts
	rates := s.displayRates
	yMin, yMax := s.yMin, s.yMax
	rMin, rMax := s.rMin, s.rMax
	xMin, xMax := s.xMin, s.xMax
	var latest float64
	hasRate := len(s.rates) > 0
	if hasRate {
		latest = s.rates[len(s.rates)-1]
	}
	s.mu.RUnlock()

	size := s.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}
	r.rateLabel = nil

	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 20
		marginBottom = 40
	)
	p := plot{
		x: marginLeft, y: marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		xMin: xMin, xMax: xMax,
	}

	r.drawGrid(p, yMin, yMax)
	if len(points) > 1 {
		r.drawTemperature(p, points, yMin, yMax)
	}
	if len(rates) > 1 {
		r.drawRates(p, rates, rMin, rMax)
	}
	if hasRate {
		r.drawRateLabel(p, latest)
	}
}

func (r *scopeRenderer) drawGrid(p plot, yMin, yMax float64) {
	const numHLines = 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/numHLines
		r.line(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		value := yMax - float64(i)*(yMax-yMin)/numHLines
		text := canvas.NewText(formatCelsius(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	const numVLines = 10
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/numVLines
		r.line(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		offset := time.Duration(float64(i) * float64(p.xMax.Sub(p.xMin)) / numVLines)
		text := canvas.NewText(formatElapsed(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.h+5))
		r.objects = append(r.objects, text)
	}
}

func (r *scopeRenderer) drawTemperature(p plot, points []trend.Point, yMin, yMax float64) {
	prev := fyne.NewPos(p.px(points[0].Time), p.py(points[0].Value.Celsius(), yMin, yMax))
	for _, pt := range points[1:] {
		next := fyne.NewPos(p.px(pt.Time), p.py(pt.Value.Celsius(), yMin, yMax))
		r.line(tempColor, 1.5, prev, next)
		prev = next
	}
}

// drawRates plots rates on their own scale.
func (r *scopeRenderer) drawRates(p plot, rates []ratePoint, rMin, rMax float64) {
	prev := fyne.NewPos(p.px(rates[0].Time), p.py(rates[0].Value, rMin, rMax))
	for _, rate := range rates[1:] {
		next := fyne.NewPos(p.px(rate.Time), p.py(rate.Value, rMin, rMax))
		r.line(rateColor, 2.5, prev, next)
		prev = next
	}
}

func (r *scopeRenderer) drawRateLabel(p plot, rate float64) {
	text := canvas.NewText(formatRate(rate), color.RGBA{R: 200, G: 200, B: 200, A: 255})
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(p.x+10, p.y+10))
	r.rateLabel = text
	r.objects = append(r.objects, text)
}

func (r *scopeRenderer) line(c color.Color, width float32, from, to fyne.Position) {
	l := canvas.NewLine(c)
	l.Position1 = from
	l.Position2 = to
	l.StrokeWidth = width
	r.objects = append(r.objects, l)
}

func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *scopeRenderer) Destroy() {}

func formatCelsius(v float64) string {
	return fmt.Sprintf("%.1f°C", v)
}

func formatRate(v float64) string {
	return fmt.Sprintf("%+.2f °C/min", v)
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
