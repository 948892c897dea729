package keypad

// OutputPin drives a keypad row.
type OutputPin interface {
	High()
	Low()
}

// InputPin reads a keypad column. Columns are pulled up, so a pressed key
// reads low while its row is driven low.
type InputPin interface {
	Get() bool
}

// Matrix scans a 4x3 key matrix by pulling one row low at a time.
type Matrix struct {
	rows [4]OutputPin
	cols [3]InputPin
}

// NewMatrix creates a Matrix and releases all rows.
func NewMatrix(rows [4]OutputPin, cols [3]InputPin) *Matrix {
	for _, r := range rows {
		r.High()
	}
	return &Matrix{rows: rows, cols: cols}
}

// Scan returns the first held key in row-major order.
func (m *Matrix) Scan() (Key, bool) {
	for r, row := range m.rows {
		row.Low()
		for c, col := range m.cols {
			if !col.Get() {
				row.High()
				return Layout[r][c], true
			}
		}
		row.High()
	}
	return None, false
}

var _ Scanner = (*Matrix)(nil)
