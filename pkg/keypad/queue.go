package keypad

// Queue is a Source fed from another goroutine, such as a serial reader or
// a GUI. Each pushed key is one event.
type Queue struct {
	ch chan Key
}

// NewQueue creates a Queue holding up to size pending keys.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Key, size)}
}

// Push enqueues k without blocking. It returns false if k is not a keypad
// character or the queue is full.
func (q *Queue) Push(k Key) bool {
	if !k.Valid() {
		return false
	}
	select {
	case q.ch <- k:
		return true
	default:
		return false
	}
}

// Next dequeues one key without blocking.
func (q *Queue) Next() (Key, bool) {
	select {
	case k := <-q.ch:
		return k, true
	default:
		return None, false
	}
}
