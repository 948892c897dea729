// Package export streams stored samples over the serial channel, one
// sample per scheduler iteration.
package export

import (
	"io"
	"log/slog"

	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/sample"
)

// Reader is the read path of the sample storage.
type Reader interface {
	Read(offset uint16) (uint16, error)
}

// Sequencer walks the stored samples oldest first. It is not safe for
// concurrent use.
type Sequencer struct {
	store  Reader
	out    io.Writer
	logger *slog.Logger

	cursor   int
	total    int
	active   bool
	exported int
}

// New creates an idle Sequencer writing lines to out.
func New(store Reader, out io.Writer, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{store: store, out: out, logger: logger}
}

// Line formats t as one export line.
func Line(t sample.Temperature) string {
	return t.String() + "\n"
}

// Begin arms the Sequencer to emit the first n samples. The caller clamps n
// to the occupancy.
func (s *Sequencer) Begin(n int) {
	s.cursor = 0
	s.total = max(n, 0)
	s.active = true
	s.logger.Info("export started", "quantity", s.total)
}

// Active reports whether an export is in progress.
func (s *Sequencer) Active() bool { return s.active }

// Exported returns the number of lines emitted since the Sequencer was
// created.
func (s *Sequencer) Exported() int { return s.exported }

// Progress returns the number of samples emitted and requested.
func (s *Sequencer) Progress() (done, total int) { return s.cursor, s.total }

// Step emits the sample at the cursor and advances it. It returns true once
// the requested quantity has been emitted, after which the Sequencer is idle
// again. A failed read still emits a line carrying the undefined value.
func (s *Sequencer) Step() bool {
	if !s.active {
		return true
	}

	if s.cursor < s.total {
		v, err := s.store.Read(eeprom.SlotOffset(s.cursor))
		if err != nil {
			s.logger.Warn("failed to read sample for export", "index", s.cursor, "error", err)
		}
		if _, err := io.WriteString(s.out, Line(sample.Temperature(v))); err != nil {
			s.logger.Warn("failed to write export line", "index", s.cursor, "error", err)
		}
		s.cursor++
		s.exported++
	}

	if s.cursor < s.total {
		return false
	}

	s.logger.Info("export finished", "quantity", s.total)
	s.cursor, s.total = 0, 0
	s.active = false
	return true
}
