package timer

import (
	"testing"
	"time"

	"dscheirer.com/shifttimer/bridge"
	"dscheirer.com/shifttimer/lcd"
	"dscheirer.com/shifttimer/sevenseg"
	"dscheirer.com/shifttimer/simclock"
	"gotest.tools/assert"
)

type rig struct {
	sim     *bridge.Sim
	clock   *simclock.Clock
	lcd     *lcd.Display
	seg     *sevenseg.Display
	ctl     *Controller
	updates []Update
}

func newRig(t *testing.T, opts ...Option) *rig {
	r := &rig{sim: bridge.NewSim(), clock: simclock.New()}
	dev, err := bridge.Open(r.sim, 0)
	assert.NilError(t, err)
	assert.NilError(t, dev.ConfigureI2C(0, 1))

	r.lcd = lcd.New(dev, lcd.DefaultAddress, r.clock)
	assert.NilError(t, r.lcd.Init())
	r.seg = sevenseg.New(dev, sevenseg.DefaultPins(), r.clock)
	assert.NilError(t, r.seg.Configure())

	opts = append(opts, WithUpdateHook(func(u Update) {
		r.updates = append(r.updates, u)
	}))
	r.ctl = New(r.lcd, r.seg, r.clock, opts...)
	return r
}

func (r *rig) lines() (string, string) {
	return r.sim.Line(lcd.DefaultAddress, 0, lcd.Width), r.sim.Line(lcd.DefaultAddress, 1, lcd.Width)
}

func (r *rig) digit() int {
	var p sevenseg.Pattern
	for i, pin := range sevenseg.DefaultPins() {
		p[i] = r.sim.Level(pin)
	}
	d, _ := sevenseg.Lookup(p)
	return d
}

func TestProgressSequence(t *testing.T) {
	for _, total := range []int{1, 3, 7, 10, 13, 59, 60, 61, 95, 600, 1800} {
		prev := 9
		seen := map[int]bool{}
		for e := 0; e <= total; e++ {
			d := Progress(e, total)
			assert.Assert(t, d >= 0 && d <= 9, "total %d elapsed %d: %d", total, e, d)
			assert.Assert(t, d <= prev, "total %d elapsed %d: %d after %d", total, e, d, prev)
			prev = d
			seen[d] = true
		}
		assert.Equal(t, Progress(0, total), 9)
		assert.Equal(t, Progress(total, total), 0)
		if total >= 10 {
			// every bucket is at least a second wide
			assert.Equal(t, len(seen), 10, "total %d", total)
		}
	}
}

func TestProgressUnevenTotal(t *testing.T) {
	// 95s: buckets are 9.5s wide, the formula is used as-is
	assert.Equal(t, Progress(9, 95), 9)
	assert.Equal(t, Progress(10, 95), 8)
	assert.Equal(t, Progress(85, 95), 1)
	assert.Equal(t, Progress(86, 95), 0)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, StatusLine("PhoneShift", 60), "PhoneShift 01:00")
	assert.Equal(t, StatusLine("On-chat/call", 61), "On-chat/ca 01:01")
	assert.Equal(t, StatusLine("Break", 0), "Break 00:00")
	assert.Equal(t, ProgressLine(9), "Progress 0/9")
	assert.Equal(t, ProgressLine(0), "Progress 9/9")
	assert.Equal(t, Remaining(70, 60), 0)
	assert.Equal(t, Remaining(1, 60), 59)
}

func TestZeroDuration(t *testing.T) {
	r := newRig(t)
	mark := len(r.sim.Audit())
	start := r.clock.Now()

	err := r.ctl.Run(NewSession("PhoneShift", 0))
	assert.Equal(t, err, ErrNoDuration)

	l1, l2 := r.lines()
	assert.Equal(t, l1, lcd.Pad("PhoneShift", lcd.Width))
	assert.Equal(t, l2, lcd.Pad("Duration is 0", lcd.Width))
	assert.Equal(t, r.ctl.State(), Idle)
	assert.Equal(t, len(r.updates), 0)
	// segments untouched
	assert.Equal(t, len(r.sim.Audit()), mark)
	assert.Equal(t, r.seg.Current(), sevenseg.Blank)
	assert.Assert(t, r.clock.Now().Sub(start) >= DefaultHold)
}

func TestPhoneOneMinute(t *testing.T) {
	r := newRig(t)

	assert.NilError(t, r.ctl.Start(NewSession("PhoneShift", 60)))
	assert.Equal(t, r.ctl.State(), Running)
	l1, l2 := r.lines()
	assert.Equal(t, l1, lcd.Pad("PhoneShift", lcd.Width))
	assert.Equal(t, l2, lcd.Pad("MODE", lcd.Width))

	// first tick shows the full minute
	assert.Assert(t, r.ctl.Tick())
	l1, l2 = r.lines()
	assert.Equal(t, l1, "PhoneShift 01:00")
	assert.Equal(t, l2, lcd.Pad("Progress 0/9", lcd.Width))
	assert.Equal(t, r.digit(), 9)

	for r.ctl.Tick() {
		if len(r.updates) > 0 && r.updates[len(r.updates)-1].Elapsed == 59 {
			break
		}
		r.clock.Sleep(DefaultPoll)
	}
	l1, l2 = r.lines()
	assert.Equal(t, l1, "PhoneShift 00:01")
	assert.Equal(t, l2, lcd.Pad("Progress 9/9", lcd.Width))
	assert.Equal(t, r.digit(), 0)

	for r.ctl.Tick() {
		r.clock.Sleep(DefaultPoll)
	}
	assert.Equal(t, r.ctl.State(), Finished)
	assert.NilError(t, r.ctl.Finish())

	l1, l2 = r.lines()
	assert.Equal(t, l1, "PhoneShift Done!")
	assert.Equal(t, l2, lcd.Pad(" ", lcd.Width))
	assert.Equal(t, r.digit(), 0)

	// one update per second, 0 through 60, none skipped
	assert.Equal(t, len(r.updates), 61)
	for i, u := range r.updates {
		assert.Equal(t, u.Elapsed, i)
		assert.Equal(t, u.Remaining, 60-i)
	}
}

func TestRunBlinksAtTheEnd(t *testing.T) {
	r := newRig(t)
	pinA := sevenseg.DefaultPins()[sevenseg.SegA]

	assert.NilError(t, r.ctl.Run(NewSession("Break", 10)))
	assert.Equal(t, r.ctl.State(), Finished)

	// walk the audit back from the end: six off/on pairs of segment A
	audit := r.sim.Audit()
	var a []string
	for _, line := range audit {
		if line == "gpio 93 true" || line == "gpio 93 false" {
			a = append(a, line)
		}
	}
	assert.Assert(t, len(a) >= 12, "segment %d only changed %d times", pinA, len(a))
	tail := a[len(a)-12:]
	for i := 0; i < 12; i += 2 {
		assert.Equal(t, tail[i], "gpio 93 false")
		assert.Equal(t, tail[i+1], "gpio 93 true")
	}
	assert.Equal(t, r.digit(), 0)
}

func TestTickOnlyOnNewSecond(t *testing.T) {
	r := newRig(t)
	assert.NilError(t, r.ctl.Start(NewSession("Break", 120)))
	start := r.clock.Now()

	assert.Assert(t, r.ctl.Tick())
	assert.Assert(t, r.ctl.Tick())
	assert.Equal(t, len(r.updates), 1)

	// just short of the next second
	r.clock.Advance(start.Add(999 * time.Millisecond).Sub(r.clock.Now()))
	assert.Assert(t, r.ctl.Tick())
	assert.Equal(t, len(r.updates), 1)

	r.clock.Advance(time.Millisecond)
	assert.Assert(t, r.ctl.Tick())
	assert.Equal(t, len(r.updates), 2)
	assert.Equal(t, r.updates[1].Line1, "Break 01:59")
}

func TestSlowTickSkipsToWallClock(t *testing.T) {
	r := newRig(t)
	assert.NilError(t, r.ctl.Start(NewSession("Break", 60)))
	assert.Assert(t, r.ctl.Tick())

	// a stall of several seconds shows the real remaining time next
	r.clock.Advance(5 * time.Second)
	assert.Assert(t, r.ctl.Tick())
	last := r.updates[len(r.updates)-1]
	assert.Equal(t, last.Elapsed, 5)
	assert.Equal(t, last.Line1, "Break 00:55")
}

func TestStartWhileRunning(t *testing.T) {
	r := newRig(t)
	assert.NilError(t, r.ctl.Start(NewSession("Break", 60)))
	assert.Equal(t, r.ctl.Start(NewSession("PhoneShift", 60)), ErrBusy)
	assert.Equal(t, r.ctl.Session().Mode, "Break")
}

func TestLCDFailureDoesNotAbort(t *testing.T) {
	r := newRig(t, WithHold(0), WithBlinks(1))
	r.sim.FailI2C = true

	assert.NilError(t, r.ctl.Run(NewSession("PhoneShift", 20)))
	assert.Equal(t, r.ctl.State(), Finished)
	assert.Equal(t, len(r.updates), 21)
	assert.Equal(t, r.digit(), 0)
}

func TestSessionIDs(t *testing.T) {
	a := NewSession("Break", 60)
	b := NewSession("Break", 60)
	assert.Assert(t, a.ID != "")
	assert.Assert(t, a.ID != b.ID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, Idle.String(), "idle")
	assert.Equal(t, Running.String(), "running")
	assert.Equal(t, Finished.String(), "finished")
	assert.Equal(t, State(7).String(), "unknown")
}
