package localtime

import (
	"sync"
	"time"
)

// Clock reports the current time used to decide whether a proposal has
// closed.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock is the host's wall clock.
var SystemClock Clock = systemClock{}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	sync.RWMutex
	now time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (mc *ManualClock) Now() time.Time {
	mc.RLock()
	defer mc.RUnlock()

	return mc.now
}

func (mc *ManualClock) Set(now time.Time) {
	mc.Lock()
	defer mc.Unlock()

	mc.now = now
}

func (mc *ManualClock) Add(d time.Duration) {
	mc.Lock()
	defer mc.Unlock()

	mc.now = mc.now.Add(d)
}
