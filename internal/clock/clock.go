// Package clock tracks wall time elapsed since the timer process started.
//
// The values it produces are for narration and log lines only. Scheduling
// of work and break periods uses its own timers.
package clock

import (
	"fmt"
	"log/slog"
	"time"
)

// Elapsed is the hours/minutes/seconds decomposition of a duration.
type Elapsed struct {
	Hours   int
	Minutes int
	Seconds int
}

// String renders the elapsed time the way narration lines spell it,
// e.g. "1時間5分30秒".
func (e Elapsed) String() string {
	return fmt.Sprintf("%d時間%d分%d秒", e.Hours, e.Minutes, e.Seconds)
}

// Clock records the process start instant.
type Clock struct {
	start time.Time
	now   func() time.Time
}

// New creates a Clock started at now(). A nil now uses time.Now.
func New(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{start: now(), now: now}
}

// Start returns the instant the clock was created.
func (c *Clock) Start() time.Time { return c.start }

// Since returns the raw wall time elapsed since start.
func (c *Clock) Since() time.Duration {
	d := c.now().Sub(c.start)
	if d < 0 {
		return 0
	}
	return d
}

// Elapsed decomposes the time since start. Hours are unbounded.
func (c *Clock) Elapsed() Elapsed {
	return Decompose(c.Since())
}

// Decompose splits d into whole hours, minutes and seconds.
func Decompose(d time.Duration) Elapsed {
	total := int64(d / time.Second)
	return Elapsed{
		Hours:   int(total / 3600),
		Minutes: int(total / 60 % 60),
		Seconds: int(total % 60),
	}
}

// RemainingMinutes returns the whole minutes left until usage runs out,
// floored at zero.
func (c *Clock) RemainingMinutes(usage time.Duration) int {
	left := usage - c.Since()
	if left <= 0 {
		return 0
	}
	return int(left / time.Minute)
}

// Attr returns the log attribute that tags a line with the elapsed time.
func (c *Clock) Attr() slog.Attr {
	return slog.String("elapsed", c.Elapsed().String())
}
