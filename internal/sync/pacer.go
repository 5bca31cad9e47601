// ABOUTME: Real-time pacing for hardware playback
// ABOUTME: Advances an absolute deadline per tick and sleeps only while ahead of it
package sync

import "time"

// Clock is the time source used by Pacer
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the monotonic wall clock
var SystemClock Clock = systemClock{}

// Pacer keeps a tick stream in step with real time. The deadline only
// ever moves forward by one tick length, so lateness is caught up by
// skipping sleeps rather than by shifting the schedule.
type Pacer struct {
	clock Clock
	next  time.Time
}

// NewPacer starts a schedule at the current time. A nil clock uses
// SystemClock.
func NewPacer(clock Clock) *Pacer {
	if clock == nil {
		clock = SystemClock
	}
	return &Pacer{clock: clock, next: clock.Now()}
}

// Wait advances the deadline by one tick at refresh Hz and sleeps until
// it. It returns how long it slept.
func (p *Pacer) Wait(refresh float64) time.Duration {
	if refresh <= 0 {
		return 0
	}

	p.next = p.next.Add(time.Duration(1e9 / refresh))
	now := p.clock.Now()
	if !p.next.After(now) {
		return 0
	}

	d := p.next.Sub(now)
	p.clock.Sleep(d)
	return d
}

// Deadline returns the end of the last scheduled tick
func (p *Pacer) Deadline() time.Time {
	return p.next
}
