package vicsek

import "gonum.org/v1/gonum/spatial/r2"

// Trail is a bounded ring buffer of recent positions. It is display state
// and never read by the physics.
type Trail struct {
	buf   []r2.Vec
	start int
	size  int
}

// Push appends p, dropping the oldest entry once capacity positions are
// stored. A capacity change keeps the most recent points. A non-positive
// capacity clears the trail.
func (t *Trail) Push(p r2.Vec, capacity int) {
	if capacity <= 0 {
		t.Clear()
		return
	}
	if len(t.buf) != capacity {
		t.resize(capacity)
	}
	if t.size < capacity {
		t.buf[(t.start+t.size)%capacity] = p
		t.size++
		return
	}
	t.buf[t.start] = p
	t.start = (t.start + 1) % capacity
}

// Points returns the stored positions, oldest first.
func (t *Trail) Points() []r2.Vec {
	out := make([]r2.Vec, t.size)
	for k := range out {
		out[k] = t.buf[(t.start+k)%len(t.buf)]
	}
	return out
}

func (t *Trail) Len() int { return t.size }

func (t *Trail) Clear() {
	t.buf = nil
	t.start = 0
	t.size = 0
}

func (t *Trail) resize(capacity int) {
	pts := t.Points()
	if len(pts) > capacity {
		pts = pts[len(pts)-capacity:]
	}
	t.buf = make([]r2.Vec, capacity)
	copy(t.buf, pts)
	t.start = 0
	t.size = len(pts)
}
