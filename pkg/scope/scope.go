// Package scope is a Fyne widget plotting the temperature trend.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/godatalog/pkg/trend"
)

const maxDisplayPoints = 1000

// ratePoint is a rate of change placed at the middle of the pair of
// readings it was computed from.
type ratePoint struct {
	Time  time.Time
	Value float64
}

// ScopeWidget displays readings and their rate of change.
type ScopeWidget struct {
	widget.BaseWidget

	window time.Duration

	mu           sync.RWMutex
	points       []trend.Point
	rates        []float64
	ratePts      []ratePoint
	displayPts   []trend.Point
	displayRates []ratePoint

	yMin, yMax float64
	rMin, rMax float64
	xMin, xMax time.Time
}

// New creates a ScopeWidget whose time axis spans at least window.
func New(window time.Duration) *ScopeWidget {
	if window <= 0 {
		window = trend.DefaultWindow
	}
	s := &ScopeWidget{
		window:       window,
		displayPts:   make([]trend.Point, 0, maxDisplayPoints),
		displayRates: make([]ratePoint, 0, maxDisplayPoints),
	}
	s.ExtendBaseWidget(s)
	s.updateAutoScale()
	return s
}

// UpdateData replaces the plotted data. Call it on the Fyne thread, for
// example from trend.OnUpdate wrapped in fyne.Do.
func (s *ScopeWidget) UpdateData(points []trend.Point, rates []float64) {
	s.setData(points, rates)
	s.Refresh()
}

// setData stores the series and decimates them for display. Rates are
// placed in time before decimation so each keeps its own position.
func (s *ScopeWidget) setData(points []trend.Point, rates []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = points
	s.rates = rates

	s.ratePts = s.ratePts[:0]
	for i, r := range rates {
		if i+1 >= len(points) {
			break
		}
		a, b := points[i].Time, points[i+1].Time
		s.ratePts = append(s.ratePts, ratePoint{Time: a.Add(b.Sub(a) / 2), Value: r})
	}

	s.displayPts = trend.Downsample(s.displayPts, points, maxDisplayPoints)
	s.displayRates = trend.Downsample(s.displayRates, s.ratePts, maxDisplayPoints)
	s.updateAutoScale()
}

// LatestRate returns the most recent rate in degrees per minute.
func (s *ScopeWidget) LatestRate() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rates) == 0 {
		return 0, false
	}
	return s.rates[len(s.rates)-1], true
}

func (s *ScopeWidget) updateAutoScale() {
	s.yMin, s.yMax = span(len(s.displayPts), func(i int) float64 { return s.displayPts[i].Value.Celsius() })
	s.rMin, s.rMax = span(len(s.displayRates), func(i int) float64 { return s.displayRates[i].Value })

	if len(s.displayPts) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}
	s.xMin = s.displayPts[0].Time
	s.xMax = s.displayPts[len(s.displayPts)-1].Time
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// span returns the range of n values with a 10% margin. An empty or flat
// series gets a unit range.
func span(n int, at func(int) float64) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	lo, hi = at(0), at(0)
	for i := 1; i < n; i++ {
		v := at(i)
		lo = min(lo, v)
		hi = max(hi, v)
	}
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - r*0.1, hi + r*0.1
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
