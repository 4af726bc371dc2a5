// Package timer runs one shift session: a countdown shown as "MM:SS" on the
// LCD and as a coarse 9..0 progress digit on the segment display.
package timer

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type State int

const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return "unknown"
}

const (
	DefaultPoll   = 20 * time.Millisecond
	DefaultHold   = 1500 * time.Millisecond
	DefaultBlinks = 6
	lineWidth     = 16
)

var (
	ErrNoDuration = errors.New("duration is 0")
	ErrBusy       = errors.New("session already running")
)

// Session is one countdown. Total is in whole seconds.
type Session struct {
	ID    string
	Mode  string
	Total int
}

func NewSession(mode string, seconds int) Session {
	return Session{ID: uuid.New().String(), Mode: mode, Total: seconds}
}

// LCD is the part of the character display a session writes to.
type LCD interface {
	ShowLines(line1, line2 string) error
	SetCursor(col, row int) error
	PrintPadded(text string, width int) error
}

// Segments is the part of the digit display a session writes to.
type Segments interface {
	DisplayDigit(d int) error
	Blink(digit, count int) error
}

// Update is what one tick put on the displays.
type Update struct {
	Elapsed   int
	Remaining int
	Digit     int
	Line1     string
	Line2     string
}

type Controller struct {
	lcd      LCD
	seg      Segments
	clock    clockwork.Clock
	logger   *log.Logger
	poll     time.Duration
	hold     time.Duration
	blinks   int
	onUpdate func(Update)

	state       State
	session     Session
	start       time.Time
	lastElapsed int
}

type Option func(*Controller)

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithPoll sets the sleep between ticks in Run.
func WithPoll(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.poll = d
		}
	}
}

// WithHold sets how long the zero-duration and completion screens stay up.
func WithHold(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.hold = d
		}
	}
}

func WithBlinks(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.blinks = n
		}
	}
}

// WithUpdateHook is called after every per-second update.
func WithUpdateHook(f func(Update)) Option {
	return func(c *Controller) { c.onUpdate = f }
}

func New(lcd LCD, seg Segments, clock clockwork.Clock, opts ...Option) *Controller {
	c := &Controller{
		lcd:         lcd,
		seg:         seg,
		clock:       clock,
		logger:      log.New(os.Stderr, "[TIMER] ", log.LstdFlags),
		poll:        DefaultPoll,
		hold:        DefaultHold,
		blinks:      DefaultBlinks,
		lastElapsed: -1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Session() Session {
	return c.session
}

// Run shows s from start to completion. It only returns early for a
// session with no duration.
func (c *Controller) Run(s Session) error {
	if err := c.Start(s); err != nil {
		return err
	}
	for c.Tick() {
		c.clock.Sleep(c.poll)
	}
	return c.Finish()
}

// Start shows the mode screen and begins the countdown. A session of zero
// or negative length only shows a notice and never starts.
func (c *Controller) Start(s Session) error {
	if c.state == Running {
		return ErrBusy
	}
	if s.Total <= 0 {
		c.logger.Printf("session %s: %q has no duration", s.ID, s.Mode)
		c.cosmetic(c.lcd.ShowLines(s.Mode, "Duration is 0"))
		c.clock.Sleep(c.hold)
		return ErrNoDuration
	}

	c.session = s
	c.logger.Printf("session %s: %q for %ds", s.ID, s.Mode, s.Total)
	c.cosmetic(c.lcd.ShowLines(s.Mode, "MODE"))

	c.start = c.clock.Now()
	c.lastElapsed = -1
	c.state = Running
	return nil
}

// Tick brings the displays up to date with the clock. It returns false
// once the session has run past its total.
func (c *Controller) Tick() bool {
	if c.state != Running {
		return false
	}
	elapsed := int(c.clock.Now().Sub(c.start) / time.Second)
	if elapsed > c.session.Total {
		c.state = Finished
		return false
	}
	if elapsed != c.lastElapsed {
		c.lastElapsed = elapsed
		c.update(elapsed)
	}
	return true
}

// Finish shows the completion screen and flashes a steady 0.
func (c *Controller) Finish() error {
	if c.state != Finished {
		return nil
	}
	c.logger.Printf("session %s: %q done", c.session.ID, c.session.Mode)
	c.cosmetic(c.lcd.ShowLines(c.session.Mode+" Done!", " "))
	c.cosmetic(c.seg.Blink(0, c.blinks))
	c.cosmetic(c.seg.DisplayDigit(0))
	c.clock.Sleep(c.hold)
	return nil
}

func (c *Controller) update(elapsed int) {
	total := c.session.Total
	digit := Progress(elapsed, total)
	remaining := Remaining(elapsed, total)
	u := Update{
		Elapsed:   elapsed,
		Remaining: remaining,
		Digit:     digit,
		Line1:     StatusLine(c.session.Mode, remaining),
		Line2:     ProgressLine(digit),
	}

	c.cosmetic(c.seg.DisplayDigit(digit))
	c.cosmetic(c.lcd.SetCursor(0, 0))
	c.cosmetic(c.lcd.PrintPadded(u.Line1, lineWidth))
	c.cosmetic(c.lcd.SetCursor(0, 1))
	c.cosmetic(c.lcd.PrintPadded(u.Line2, lineWidth))

	if c.onUpdate != nil {
		c.onUpdate(u)
	}
}

// cosmetic notes a display error; a dropped update never stops a session.
func (c *Controller) cosmetic(err error) {
	if err != nil {
		c.logger.Printf("display update skipped: %v", err)
	}
}
