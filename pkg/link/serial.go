package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"github.com/itohio/godatalog/pkg/keypad"
)

const (
	// DefaultBaudRate is the baud rate of the logger's serial port.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size of the key channel buffer.
	DefaultBufferSize = 16
)

// ErrNotConnected is returned by Write before Connect or after Close.
var ErrNotConnected = errors.New("link: not connected")

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Serial is a Link over a serial port.
type Serial struct {
	port     string
	baudRate int
	logger   *slog.Logger

	mu        sync.RWMutex
	conn      serial.Port
	keys      chan keypad.Key
	connected bool
	started   bool // keys belongs to an earlier reader
}

// NewSerial creates a Serial for port. Zero baudRate and bufSize select the
// defaults.
func NewSerial(port string, baudRate, bufSize int, logger *slog.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		logger:   logger.With("port", port),
		keys:     make(chan keypad.Key, bufSize),
	}
}

// Connect opens the serial port and starts reading remote keys. Every
// connection after the first gets a new key channel.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	if s.started {
		s.keys = make(chan keypad.Key, cap(s.keys))
	}
	s.started = true
	s.conn = port
	s.connected = true
	s.logger.Info("serial link connected", "baud_rate", s.baudRate)

	keys := s.keys
	go func() {
		defer close(keys)
		readKeys(port, keys, s.logger)
	}()

	return nil
}

// Close closes the port. The key channel is closed once the reader has
// stopped.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}
	s.connected = false

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", s.port, err)
	}
	return nil
}

// Keys returns the key channel of the current or most recent connection.
func (s *Serial) Keys() <-chan keypad.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys
}

// Write sends export output to the port.
func (s *Serial) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return 0, ErrNotConnected
	}

	n, err := s.conn.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to %s: %w", s.port, err)
	}
	return n, nil
}

// IsConnected returns whether the port is open.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// readKeys forwards keypad characters read from r to keys until r fails.
// Other bytes, including line endings, are ignored. A full channel drops
// the key.
func readKeys(r io.Reader, keys chan<- keypad.Key, logger *slog.Logger) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("serial reader stopped", "error", err)
			}
			return
		}

		k, ok := keypad.Parse(b)
		if !ok {
			continue
		}

		select {
		case keys <- k:
		default:
			logger.Warn("remote key dropped", "key", k.String())
		}
	}
}
