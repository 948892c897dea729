package eeprom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// pageSize is the write page of the device; writes past the end of a page
// wrap to its start.
const pageSize = 16

// Sim simulates a 24C16 attached to a bus. It keeps the internal address
// pointer, wraps page writes and refuses to acknowledge while a write cycle
// is in progress, so a driver that does not wait the cycle out sees ErrNack.
type Sim struct {
	mu        sync.Mutex
	mem       [Size]byte
	ptr       uint16
	busyUntil time.Time
	absent    bool
	now       func() time.Time
}

// Ensure Sim can stand in for a real bus.
var _ Bus = (*Sim)(nil)

// NewSim creates an erased device. A nil now uses time.Now.
func NewSim(now func() time.Time) *Sim {
	if now == nil {
		now = time.Now
	}
	s := &Sim{now: now}
	for i := range s.mem {
		s.mem[i] = 0xFF
	}
	return s
}

// SetAbsent makes the device stop acknowledging any transaction.
func (s *Sim) SetAbsent(absent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absent = absent
}

func (s *Sim) ack(addr byte) error {
	if s.absent || addr&^0x07 != BaseAddress {
		return ErrNack
	}
	if s.now().Before(s.busyUntil) {
		return ErrNack
	}
	return nil
}

// WriteBytes handles a write transaction. The first byte sets the address
// pointer within the selected block; the remaining bytes are programmed.
func (s *Sim) WriteBytes(addr byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ack(addr); err != nil {
		return err
	}
	if len(value) == 0 {
		return nil
	}

	s.ptr = uint16(addr&0x07)<<8 | uint16(value[0])
	data := value[1:]
	if len(data) == 0 {
		return nil
	}

	page := s.ptr &^ (pageSize - 1)
	col := s.ptr & (pageSize - 1)
	for _, b := range data {
		s.mem[page|col] = b
		col = (col + 1) & (pageSize - 1)
	}
	s.ptr = page | col
	s.busyUntil = s.now().Add(WriteCycle)

	return nil
}

// ReadBytes handles a read transaction from the current address pointer.
func (s *Sim) ReadBytes(addr byte, num int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ack(addr); err != nil {
		return nil, err
	}

	out := make([]byte, num)
	for i := range out {
		out[i] = s.mem[s.ptr]
		s.ptr = (s.ptr + 1) % Size
	}
	return out, nil
}

// Bytes returns a copy of the memory contents.
func (s *Sim) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, Size)
	copy(out, s.mem[:])
	return out
}

// Load replaces the memory contents with a Size-byte image.
func (s *Sim) Load(r io.Reader) error {
	var img [Size]byte
	if _, err := io.ReadFull(r, img[:]); err != nil {
		return fmt.Errorf("failed to read eeprom image: %w", err)
	}
	s.mu.Lock()
	s.mem = img
	s.mu.Unlock()
	return nil
}

// Save writes the memory contents as a Size-byte image.
func (s *Sim) Save(w io.Writer) error {
	if _, err := w.Write(s.Bytes()); err != nil {
		return fmt.Errorf("failed to write eeprom image: %w", err)
	}
	return nil
}

// LoadFile loads an image from filename. A missing file leaves the device
// erased.
func (s *Sim) LoadFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read eeprom image: %w", err)
	}
	return s.Load(bytes.NewReader(data))
}

// SaveFile writes the image to filename.
func (s *Sim) SaveFile(filename string) error {
	if err := os.WriteFile(filename, s.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write eeprom image: %w", err)
	}
	return nil
}
