// Package keypad turns the 12-key operator keypad into discrete key events.
package keypad

// Key is one keypad character: '0'..'9', Cancel or Confirm.
type Key byte

const (
	// None is the zero Key, returned alongside false.
	None Key = 0
	// Cancel discards the pending operation.
	Cancel Key = '*'
	// Confirm executes the pending operation.
	Confirm Key = '#'
)

// Layout maps matrix positions to keys, rows top to bottom.
var Layout = [4][3]Key{
	{'1', '2', '3'},
	{'4', '5', '6'},
	{'7', '8', '9'},
	{Cancel, '0', Confirm},
}

// Parse converts a received byte into a Key. Bytes outside the keypad
// alphabet are rejected.
func Parse(b byte) (Key, bool) {
	k := Key(b)
	return k, k.Valid()
}

// Valid reports whether k is a keypad character.
func (k Key) Valid() bool {
	return k.IsDigit() || k == Cancel || k == Confirm
}

// IsDigit reports whether k is one of '0'..'9'.
func (k Key) IsDigit() bool {
	return k >= '0' && k <= '9'
}

// Digit returns the numeric value of a digit key.
func (k Key) Digit() uint8 {
	return uint8(k - '0')
}

func (k Key) String() string {
	if !k.Valid() {
		return "none"
	}
	return string(rune(k))
}

// Scanner reports the key that is currently held down. It is level
// triggered: a held key is reported on every call.
type Scanner interface {
	Scan() (Key, bool)
}

// Source yields discrete key events, at most one per call.
type Source interface {
	Next() (Key, bool)
}

// Debouncer converts a level-triggered Scanner into an edge-triggered
// Source. A press is reported once and the Debouncer stays quiet until a
// scan finds no key held.
type Debouncer struct {
	scanner  Scanner
	reported bool
}

// NewDebouncer wraps s.
func NewDebouncer(s Scanner) *Debouncer {
	return &Debouncer{scanner: s}
}

// Next scans once and returns a key only on a new press.
func (d *Debouncer) Next() (Key, bool) {
	k, ok := d.scanner.Scan()
	if !ok {
		d.reported = false
		return None, false
	}
	if d.reported {
		return None, false
	}
	d.reported = true
	return k, true
}

// Sources polls each Source in order and returns the first event.
type Sources []Source

// Next returns the first pending event.
func (s Sources) Next() (Key, bool) {
	for _, src := range s {
		if k, ok := src.Next(); ok {
			return k, true
		}
	}
	return None, false
}

var (
	_ Source = (*Debouncer)(nil)
	_ Source = (*Queue)(nil)
	_ Source = Sources(nil)
)
