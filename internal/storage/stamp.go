package storage

import (
	"sync/atomic"
	"time"
)

// Stamper hands out strictly increasing millisecond stamps. Two callers in
// the same millisecond get consecutive values instead of a collision.
type Stamper struct {
	last atomic.Int64
	now  func() time.Time
}

// NewStamper returns a Stamper on the wall clock.
func NewStamper() *Stamper {
	return &Stamper{now: time.Now}
}

// Next returns max(now in ms, previous + 1).
func (s *Stamper) Next() int64 {
	for {
		prev := s.last.Load()
		next := s.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if s.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}
