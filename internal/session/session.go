// Package session implements the work/break state machine that drives the
// timer.
//
// The Controller runs on a single goroutine. Each tick narrates the period
// that just ended, announces the next one and flips the period. The period
// timer is a one-shot that re-arms itself with the duration of the period
// being entered, so work and break keep their own lengths. An optional
// deadline ends the run after the configured usage time; cancelling the run
// context (SIGINT/SIGTERM) ends it immediately. Both exits speak a closing
// line exactly once.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Akira-Osanai/pomodoro-timer/internal/clock"
	"github.com/Akira-Osanai/pomodoro-timer/internal/message"
	"github.com/Akira-Osanai/pomodoro-timer/internal/metrics"
	"github.com/Akira-Osanai/pomodoro-timer/internal/narrator"
	"github.com/Akira-Osanai/pomodoro-timer/internal/notify"
)

// DefaultShutdownTimeout bounds the closing notification and narration.
const DefaultShutdownTimeout = 30 * time.Second

// ExitReason tells why Run returned.
type ExitReason string

const (
	ExitDeadline  ExitReason = "deadline"
	ExitInterrupt ExitReason = "interrupt"
)

// Narrator produces the line spoken on each tick.
type Narrator interface {
	Generate(ctx context.Context, req narrator.Request) narrator.Narration
}

// Speaker speaks lines and raises notifications. Neither method reports
// failure; that is the speaker's own concern.
type Speaker interface {
	Speak(ctx context.Context, text string, sound notify.Sound)
	Notify(title, body string, sound notify.Sound)
}

// Sounds are the notification sounds for each event.
type Sounds struct {
	Work  notify.Sound
	Break notify.Sound
	Start notify.Sound
	Exit  notify.Sound
}

// For returns the sound of period p.
func (s Sounds) For(p message.Period) notify.Sound {
	if p == message.PeriodWork {
		return s.Work
	}
	return s.Break
}

// Config holds the controller settings.
type Config struct {
	UserName        string
	Work            time.Duration
	Break           time.Duration
	UsageTime       time.Duration // 0 runs until interrupted
	Sounds          Sounds
	ShutdownTimeout time.Duration // 0 uses DefaultShutdownTimeout
}

// State is the session state. Exactly one period is current and both
// counters start at 1 and only grow.
type State struct {
	Period        message.Period `json:"period"`
	WorkSessions  int            `json:"work_sessions"`
	BreakSessions int            `json:"break_sessions"`
}

// Session returns the counter of the current period.
func (s State) Session() int {
	if s.Period == message.PeriodWork {
		return s.WorkSessions
	}
	return s.BreakSessions
}

// advance flips the period and counts the period entered.
func (s *State) advance() {
	s.Period = s.Period.Next()
	if s.Period == message.PeriodWork {
		s.WorkSessions++
	} else {
		s.BreakSessions++
	}
}

// Snapshot is a point-in-time view of the controller for status reporting.
type Snapshot struct {
	State
	Phase            string    `json:"phase"`
	StartedAt        time.Time `json:"started_at"`
	Elapsed          string    `json:"elapsed"`
	UsageMinutes     int       `json:"usage_minutes,omitempty"`
	RemainingMinutes *int      `json:"remaining_minutes,omitempty"`
	Ticks            int       `json:"ticks"`
}

// Phases reported in Snapshot.
const (
	PhaseStarting = "starting"
	PhaseRunning  = "running"
	PhaseExiting  = "exiting"
)

type timer interface {
	C() <-chan time.Time
	Stop() bool
}

type stdTimer struct{ t *time.Timer }

func (s stdTimer) C() <-chan time.Time { return s.t.C }
func (s stdTimer) Stop() bool          { return s.t.Stop() }

func newStdTimer(d time.Duration) timer { return stdTimer{time.NewTimer(d)} }

// Controller is the session state machine.
type Controller struct {
	cfg      Config
	narrator Narrator
	speaker  Speaker
	clock    *clock.Clock
	metrics  metrics.Recorder
	log      *slog.Logger
	newTimer func(time.Duration) timer

	mu    sync.Mutex
	state State
	phase string
	ticks int
}

// New creates a Controller starting in the first work session. A nil rec
// discards metrics.
func New(cfg Config, n Narrator, s Speaker, clk *clock.Clock, rec metrics.Recorder) *Controller {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Controller{
		cfg:      cfg,
		narrator: n,
		speaker:  s,
		clock:    clk,
		metrics:  rec,
		log:      slog.With("component", "session"),
		newTimer: newStdTimer,
		state:    State{Period: message.PeriodWork, WorkSessions: 1, BreakSessions: 1},
		phase:    PhaseStarting,
	}
}

// Run drives the session until the usage time runs out or ctx is
// cancelled, and returns which of the two happened.
func (c *Controller) Run(ctx context.Context) ExitReason {
	// The deadline is armed first so that it expires before a period timer
	// of the same length.
	var deadline <-chan time.Time
	if c.cfg.UsageTime > 0 {
		dt := c.newTimer(c.cfg.UsageTime)
		defer dt.Stop()
		deadline = dt.C()
	}

	period := c.newTimer(c.duration(message.PeriodWork))
	defer func() { period.Stop() }()

	c.log.Info("pomodoro timer starting", c.clock.Attr(),
		"user", c.cfg.UserName, "work", c.cfg.Work, "break", c.cfg.Break, "usage_time", c.cfg.UsageTime)
	c.speaker.Notify(message.TitleStartup, message.StartupLine, c.cfg.Sounds.Start)
	c.speaker.Speak(ctx, message.StartupLine, c.cfg.Sounds.For(message.PeriodWork))
	c.setPhase(PhaseRunning)

	for {
		select {
		case <-ctx.Done():
			return c.exit(ctx, ExitInterrupt)
		case <-deadline:
			return c.exit(ctx, ExitDeadline)
		case <-period.C():
			if reason, ok := c.exitPending(ctx, deadline); ok {
				return c.exit(ctx, reason)
			}
			next := c.Snapshot().Period.Next()
			period = c.newTimer(c.duration(next))
			c.tick(ctx)
		}
	}
}

// exitPending reports an exit that is already due when a period ends, so
// that no tick is narrated past the deadline or after an interrupt.
func (c *Controller) exitPending(ctx context.Context, deadline <-chan time.Time) (ExitReason, bool) {
	select {
	case <-ctx.Done():
		return ExitInterrupt, true
	case <-deadline:
		return ExitDeadline, true
	default:
	}
	if c.cfg.UsageTime > 0 && c.clock.Since() >= c.cfg.UsageTime {
		return ExitDeadline, true
	}
	return "", false
}

func (c *Controller) exit(ctx context.Context, reason ExitReason) ExitReason {
	if reason == ExitDeadline {
		c.shutdown(ctx, message.DeadlineExitLine)
	} else {
		c.shutdown(ctx, message.InterruptExitLine)
	}
	return reason
}

// tick narrates the period that just ended, announces the next one and
// advances the state. A tick interrupted by ctx stops where it is and
// leaves the state untouched.
func (c *Controller) tick(ctx context.Context) {
	st := c.Snapshot().State

	n := c.narrator.Generate(ctx, narrator.Request{
		Period:    st.Period,
		Session:   st.Session(),
		UserName:  c.cfg.UserName,
		UsageTime: c.cfg.UsageTime,
	})
	if ctx.Err() != nil {
		return
	}
	c.log.Info("narration generated", c.clock.Attr(),
		"period", st.Period, "session", st.Session(), "fallback", n.Fallback, "text", n.Text)

	c.speaker.Speak(ctx, n.Text, c.cfg.Sounds.For(st.Period))
	if ctx.Err() != nil {
		c.log.Debug("tick interrupted", c.clock.Attr(), "period", st.Period, "session", st.Session())
		return
	}
	c.speaker.Notify(message.TickTitle(st.Period), message.TickMessage(st.Period, c.cfg.UserName, st.Session()), notify.SoundDefault)

	c.metrics.RecordTick(string(st.Period), st.Session())

	c.mu.Lock()
	c.state.advance()
	c.ticks++
	c.mu.Unlock()
}

// shutdown raises the closing notification and speaks line on a context
// detached from the run context, which may already be cancelled. The
// spoken line carries the current period's sound like any other utterance.
func (c *Controller) shutdown(ctx context.Context, line string) {
	c.setPhase(PhaseExiting)
	c.log.Info("pomodoro timer exiting", c.clock.Attr(), "reason", line)

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ShutdownTimeout)
	defer cancel()

	c.speaker.Notify(message.TitleExit, line, c.cfg.Sounds.Exit)
	c.speaker.Speak(sctx, line, c.cfg.Sounds.For(c.Snapshot().Period))
}

func (c *Controller) duration(p message.Period) time.Duration {
	if p == message.PeriodWork {
		return c.cfg.Work
	}
	return c.cfg.Break
}

func (c *Controller) setPhase(phase string) {
	c.mu.Lock()
	c.phase = phase
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state. It is safe to call from
// any goroutine.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{State: c.state, Phase: c.phase, Ticks: c.ticks}
	c.mu.Unlock()

	s.StartedAt = c.clock.Start()
	s.Elapsed = c.clock.Elapsed().String()
	if c.cfg.UsageTime > 0 {
		s.UsageMinutes = int(c.cfg.UsageTime / time.Minute)
		remaining := c.clock.RemainingMinutes(c.cfg.UsageTime)
		s.RemainingMinutes = &remaining
	}
	return s
}
