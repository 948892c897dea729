package keypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heldScanner replays a sequence of scan results, one per call.
type heldScanner struct {
	scans []Key
	pos   int
}

func (s *heldScanner) Scan() (Key, bool) {
	if s.pos >= len(s.scans) {
		return None, false
	}
	k := s.scans[s.pos]
	s.pos++
	return k, k != None
}

func collect(src Source, n int) []Key {
	var out []Key
	for i := 0; i < n; i++ {
		if k, ok := src.Next(); ok {
			out = append(out, k)
		}
	}
	return out
}

func TestParse(t *testing.T) {
	for _, b := range []byte("0123456789*#") {
		k, ok := Parse(b)
		assert.True(t, ok, "byte %q", b)
		assert.Equal(t, Key(b), k)
	}
	for _, b := range []byte("aA \n\x00+") {
		_, ok := Parse(b)
		assert.False(t, ok, "byte %q", b)
	}
}

func TestKey_Digit(t *testing.T) {
	assert.True(t, Key('7').IsDigit())
	assert.Equal(t, uint8(7), Key('7').Digit())
	assert.False(t, Confirm.IsDigit())
	assert.False(t, Cancel.IsDigit())
	assert.Equal(t, "#", Confirm.String())
	assert.Equal(t, "none", None.String())
}

func TestDebouncer_HeldKeyReportedOnce(t *testing.T) {
	s := &heldScanner{scans: []Key{'5', '5', '5', '5', None, None, '5', None}}
	d := NewDebouncer(s)

	assert.Equal(t, []Key{'5', '5'}, collect(d, len(s.scans)))
}

func TestDebouncer_KeyChangeWithoutReleaseIgnored(t *testing.T) {
	s := &heldScanner{scans: []Key{'1', '2', None, '2'}}
	d := NewDebouncer(s)

	assert.Equal(t, []Key{'1', '2'}, collect(d, len(s.scans)))
}

type pin struct {
	low bool
}

func (p *pin) High() { p.low = false }
func (p *pin) Low()  { p.low = true }

// column reads low when its key is held and that key's row is driven low.
type column struct {
	rows *[4]*pin
	held *int
	col  int
}

func (c column) Get() bool {
	if *c.held < 0 {
		return true
	}
	r, col := *c.held/3, *c.held%3
	return !(col == c.col && c.rows[r].low)
}

func TestMatrix_Scan(t *testing.T) {
	var rows [4]*pin
	for i := range rows {
		rows[i] = &pin{}
	}
	held := -1

	var outs [4]OutputPin
	for i, r := range rows {
		outs[i] = r
	}
	var ins [3]InputPin
	for c := range ins {
		ins[c] = column{rows: &rows, held: &held, col: c}
	}
	m := NewMatrix(outs, ins)

	_, ok := m.Scan()
	assert.False(t, ok)

	for pos := 0; pos < 12; pos++ {
		held = pos
		k, ok := m.Scan()
		require.True(t, ok)
		assert.Equal(t, Layout[pos/3][pos%3], k)
		for _, r := range rows {
			assert.False(t, r.low, "rows are released after a scan")
		}
	}
}

func TestQueue(t *testing.T) {
	q := NewQueue(2)

	assert.True(t, q.Push('1'))
	assert.False(t, q.Push('x'))
	assert.True(t, q.Push(Confirm))
	assert.False(t, q.Push('2'), "full queue drops")

	assert.Equal(t, []Key{'1', Confirm}, collect(q, 5))
}

func TestSources_OneEventPerCall(t *testing.T) {
	a := NewQueue(4)
	b := NewQueue(4)
	a.Push('1')
	b.Push('2')
	b.Push('3')

	src := Sources{a, b}
	k, ok := src.Next()
	require.True(t, ok)
	assert.Equal(t, Key('1'), k)

	assert.Equal(t, []Key{'2', '3'}, collect(src, 4))
}
