// Package display holds the operator output surfaces: the two-line text
// display and the four-digit live value readout.
package display

import (
	"strings"
	"sync"
)

const (
	// Width is the number of characters per text line.
	Width = 16
	// Height is the number of text lines.
	Height = 2
)

// Text is a character display addressed by column and row.
type Text interface {
	Clear()
	SetCursor(col, row int)
	Print(s string)
}

// Show clears t and writes one message of up to two lines.
func Show(t Text, top, bottom string) {
	t.Clear()
	t.SetCursor(0, 0)
	t.Print(top)
	if bottom != "" {
		t.SetCursor(0, 1)
		t.Print(bottom)
	}
}

// Screen is an in-memory Text. It is safe to read from another goroutine
// while the scheduler writes to it.
type Screen struct {
	mu       sync.Mutex
	cells    [Height][Width]byte
	col, row int
	onChange func([Height]string)
}

// NewScreen returns a cleared Screen.
func NewScreen() *Screen {
	s := &Screen{}
	s.clear()
	return s
}

// OnChange registers a callback receiving the lines after every Print and
// Clear. It is called with the Screen lock released.
func (s *Screen) OnChange(fn func([Height]string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Screen) clear() {
	for r := range s.cells {
		for c := range s.cells[r] {
			s.cells[r][c] = ' '
		}
	}
	s.col, s.row = 0, 0
}

func (s *Screen) Clear() {
	s.mu.Lock()
	s.clear()
	s.mu.Unlock()
	s.notify()
}

// SetCursor moves the write position. Out of range positions are clamped.
func (s *Screen) SetCursor(col, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.col = min(max(col, 0), Width)
	s.row = min(max(row, 0), Height-1)
}

// Print writes s at the cursor. Characters past the end of the line are
// dropped.
func (s *Screen) Print(text string) {
	s.mu.Lock()
	for i := 0; i < len(text) && s.col < Width; i++ {
		s.cells[s.row][s.col] = text[i]
		s.col++
	}
	s.mu.Unlock()
	s.notify()
}

// Lines returns both lines with trailing spaces removed.
func (s *Screen) Lines() [Height]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines()
}

func (s *Screen) lines() [Height]string {
	var out [Height]string
	for r := range s.cells {
		out[r] = strings.TrimRight(string(s.cells[r][:]), " ")
	}
	return out
}

func (s *Screen) notify() {
	s.mu.Lock()
	fn := s.onChange
	lines := s.lines()
	s.mu.Unlock()
	if fn != nil {
		fn(lines)
	}
}

// String renders the Screen as two newline separated lines.
func (s *Screen) String() string {
	l := s.Lines()
	return l[0] + "\n" + l[1]
}

var _ Text = (*Screen)(nil)
