package store

// History is a fixed-capacity FIFO of readings backed by a ring buffer.
//
// Pushing onto a full History evicts the oldest reading. All accessors
// return copies ordered oldest first.
type History struct {
	buf   []Reading
	head  int // index of the oldest reading
	count int
}

// NewHistory creates an empty History holding at most capacity readings.
// A capacity below 1 is treated as 1.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Reading, capacity)}
}

// Push appends r, evicting the oldest reading when full.
// Returns true if a reading was evicted.
func (h *History) Push(r Reading) bool {
	capacity := len(h.buf)
	if h.count < capacity {
		h.buf[(h.head+h.count)%capacity] = r
		h.count++
		return false
	}
	h.buf[h.head] = r
	h.head = (h.head + 1) % capacity
	return true
}

// Len returns the number of readings held.
func (h *History) Len() int {
	return h.count
}

// Cap returns the maximum number of readings held.
func (h *History) Cap() int {
	return len(h.buf)
}

// Last returns the newest reading, or false when empty.
func (h *History) Last() (Reading, bool) {
	if h.count == 0 {
		return Reading{}, false
	}
	return h.buf[(h.head+h.count-1)%len(h.buf)], true
}

// All returns every reading, oldest first.
func (h *History) All() []Reading {
	return h.Tail(h.count)
}

// Tail returns the newest n readings, oldest first. n larger than Len
// returns everything; n below 1 returns an empty slice.
func (h *History) Tail(n int) []Reading {
	if n > h.count {
		n = h.count
	}
	if n < 1 {
		return []Reading{}
	}

	out := make([]Reading, n)
	start := h.head + h.count - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}
