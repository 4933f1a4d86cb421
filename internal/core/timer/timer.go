package timer

import "time"

// Mode selects whether a Timer stops once it elapses or wraps around.
type Mode int

const (
	Once Mode = iota
	Repeating
)

// Timer is a countdown advanced explicitly by the simulation. A Once timer
// stays finished after it elapses; a Repeating timer reports finished only on
// the tick where it wrapped.
type Timer struct {
	duration time.Duration
	elapsed  time.Duration
	mode     Mode
	finished bool
	wraps    int
}

func New(d time.Duration, mode Mode) Timer {
	return Timer{duration: d, mode: mode}
}

// NewFinished returns a Once timer that has already elapsed.
func NewFinished(d time.Duration) Timer {
	return Timer{duration: d, elapsed: d, mode: Once, finished: true}
}

// Tick advances the timer by dt.
func (t *Timer) Tick(dt time.Duration) {
	t.wraps = 0
	switch t.mode {
	case Once:
		if t.finished {
			return
		}
		t.elapsed += dt
		if t.elapsed >= t.duration {
			t.elapsed = t.duration
			t.finished = true
			t.wraps = 1
		}
	case Repeating:
		t.elapsed += dt
		if t.duration <= 0 {
			t.elapsed = 0
			t.wraps = 1
		} else if t.elapsed >= t.duration {
			t.wraps = int(t.elapsed / t.duration)
			t.elapsed %= t.duration
		}
		t.finished = t.wraps > 0
	}
}

func (t *Timer) Finished() bool { return t.finished }

// JustFinished reports whether the last Tick crossed the deadline.
func (t *Timer) JustFinished() bool { return t.wraps > 0 }

func (t *Timer) Reset() {
	t.elapsed = 0
	t.finished = false
	t.wraps = 0
}

func (t *Timer) Remaining() time.Duration { return t.duration - t.elapsed }
func (t *Timer) Duration() time.Duration  { return t.duration }
func (t *Timer) Elapsed() time.Duration   { return t.elapsed }
func (t *Timer) Mode() Mode               { return t.mode }
