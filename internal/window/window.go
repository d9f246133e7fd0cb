// Package window implements the sliding-window vector store: an ordered
// buffer of the last W sparse vectors, plus the running count of evictions
// so ordinals can be translated to current buffer offsets.
package window

import (
	"fmt"

	"streamann/internal/vector"
)

// Store is an ordered buffer of live vectors. The window holds the most
// recently pushed W vectors; ordinal-to-offset translation is
// offset = ordinal - droppedSoFar, valid only while offset is in
// [0, len(buf)).
type Store struct {
	capacity     int
	buf          []vector.Vector
	droppedSoFar uint64
}

// New creates an empty Store with the given sliding-window capacity W.
func New(capacity int) *Store {
	return &Store{
		capacity: capacity,
		buf:      make([]vector.Vector, 0, capacity),
	}
}

// Len returns the number of vectors currently held in the window.
func (s *Store) Len() int {
	return len(s.buf)
}

// DroppedSoFar returns the number of vectors evicted so far, which equals
// the ordinal of the oldest live vector (or the next ordinal to arrive, if
// the window is empty).
func (s *Store) DroppedSoFar() uint64 {
	return s.droppedSoFar
}

// Push appends v to the tail of the window.
func (s *Store) Push(v vector.Vector) {
	s.buf = append(s.buf, v)
}

// Full reports whether the window holds more than its capacity and needs an
// eviction.
func (s *Store) Full() bool {
	return len(s.buf) > s.capacity
}

// PopFront evicts and returns the oldest live vector, incrementing
// DroppedSoFar. Callers must check Full() first; PopFront panics if the
// window is empty, since that would only happen from a driver protocol
// violation.
func (s *Store) PopFront() vector.Vector {
	if len(s.buf) == 0 {
		panic("window: PopFront on empty store")
	}
	evicted := s.buf[0]
	s.buf = s.buf[1:]
	s.droppedSoFar++
	return evicted
}

// Get returns the vector at the given ordinal. Behavior is undefined —
// reported as an error here rather than corrupting state — if ordinal
// falls outside the live range [droppedSoFar, droppedSoFar+len(buf)).
func (s *Store) Get(ordinal uint64) (vector.Vector, error) {
	if ordinal < s.droppedSoFar {
		return vector.Vector{}, fmt.Errorf("window: ordinal %d already evicted (dropped_so_far=%d)", ordinal, s.droppedSoFar)
	}
	offset := ordinal - s.droppedSoFar
	if offset >= uint64(len(s.buf)) {
		return vector.Vector{}, fmt.Errorf("window: ordinal %d out of range (window holds [%d, %d))", ordinal, s.droppedSoFar, s.droppedSoFar+uint64(len(s.buf)))
	}
	return s.buf[offset], nil
}
