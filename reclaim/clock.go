package reclaim

import (
	"sync/atomic"
	"time"
)

// Clock supplies the start timestamp of new epochs.
type Clock interface {
	Now() uint64
}

// SystemClock reads wall-clock time in milliseconds since the Unix epoch.
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().UnixMilli())
}

// ManualClock returns whatever it was last set to.
type ManualClock struct {
	now atomic.Uint64
}

func NewManualClock(now uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	return c
}

func (c *ManualClock) Now() uint64 {
	return c.now.Load()
}

func (c *ManualClock) Set(now uint64) {
	c.now.Store(now)
}

func (c *ManualClock) Advance(d uint64) {
	c.now.Add(d)
}
