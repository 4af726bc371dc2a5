package sevenseg

import (
	"errors"
	"testing"
	"time"

	"dscheirer.com/shifttimer/bridge"
	"dscheirer.com/shifttimer/simclock"
	"gotest.tools/assert"
)

const (
	x = true
	o = false
)

// A, B, C, D, E, F, G
var legible = [10]Pattern{
	{x, x, x, x, x, x, o},
	{o, x, x, o, o, o, o},
	{x, x, o, x, x, o, x},
	{x, x, x, x, o, o, x},
	{o, x, x, o, o, x, x},
	{x, o, x, x, o, x, x},
	{x, o, x, x, x, x, x},
	{x, x, x, o, o, o, o},
	{x, x, x, x, x, x, x},
	{x, x, x, x, o, x, x},
}

func setup(t *testing.T) (*Display, *bridge.Sim, *simclock.Clock) {
	sim := bridge.NewSim()
	dev, err := bridge.Open(sim, 0)
	assert.NilError(t, err)
	clock := simclock.New()
	d := New(dev, DefaultPins(), clock)
	assert.NilError(t, d.Configure())
	return d, sim, clock
}

func levels(sim *bridge.Sim, pins Pins) Pattern {
	var p Pattern
	for i, pin := range pins {
		p[i] = sim.Level(pin)
	}
	return p
}

func TestPatternTable(t *testing.T) {
	for d := 0; d <= 9; d++ {
		p, ok := PatternFor(d)
		assert.Assert(t, ok)
		assert.Equal(t, p, legible[d], "digit %d", d)

		back, ok := Lookup(p)
		assert.Assert(t, ok)
		assert.Equal(t, back, d)
	}
	for _, d := range []int{-1, 10, 42} {
		p, ok := PatternFor(d)
		assert.Assert(t, !ok)
		assert.Equal(t, p, Pattern{})
	}
	d, ok := Lookup(Pattern{})
	assert.Assert(t, ok)
	assert.Equal(t, d, Blank)
}

func TestPatternForReturnsCopy(t *testing.T) {
	p, _ := PatternFor(8)
	p[SegA] = false
	again, _ := PatternFor(8)
	assert.Equal(t, again, legible[8])
}

func TestConfigure(t *testing.T) {
	_, sim, _ := setup(t)
	assert.DeepEqual(t, sim.ConfiguredPins(), []int{70, 71, 76, 78, 92, 93, 95})
}

func TestConfigureFailure(t *testing.T) {
	sim := bridge.NewSim()
	sim.FailConfigure[71] = true
	dev, err := bridge.Open(sim, 0)
	assert.NilError(t, err)

	d := New(dev, DefaultPins(), simclock.New())
	err = d.Configure()
	assert.ErrorContains(t, err, "segment C (gpio 71)")

	var opErr *bridge.OpError
	assert.Assert(t, errors.As(err, &opErr))
	assert.Equal(t, opErr.Code, uint32(0x1F))

	// unusable without configuration
	assert.Equal(t, d.DisplayDigit(3), ErrNotConfigured)
}

func TestDisplayDigit(t *testing.T) {
	d, sim, _ := setup(t)
	pins := DefaultPins()

	for digit := 0; digit <= 9; digit++ {
		assert.NilError(t, d.DisplayDigit(digit))
		assert.Equal(t, levels(sim, pins), legible[digit])
		assert.Equal(t, d.Current(), digit)
	}

	for _, bad := range []int{-3, 10, 99} {
		assert.NilError(t, d.DisplayDigit(8))
		assert.NilError(t, d.DisplayDigit(bad))
		assert.Equal(t, levels(sim, pins), Pattern{})
		assert.Equal(t, d.Current(), Blank)
	}

	assert.NilError(t, d.DisplayDigit(4))
	assert.NilError(t, d.Off())
	assert.Equal(t, levels(sim, pins), Pattern{})
}

func TestStuckSegmentDoesNotStopTheRest(t *testing.T) {
	d, sim, _ := setup(t)
	pins := DefaultPins()
	sim.FailSet[pins[SegB]] = true

	err := d.DisplayDigit(8)
	assert.Assert(t, err != nil)

	got := levels(sim, pins)
	want := legible[8]
	want[SegB] = false
	assert.Equal(t, got, want)
}

func TestBlink(t *testing.T) {
	d, sim, clock := setup(t)
	pins := DefaultPins()

	assert.NilError(t, d.DisplayDigit(9))
	mark := len(sim.Audit())

	assert.NilError(t, d.Blink(0, 6))

	assert.Equal(t, clock.Slept(), 12*BlinkInterval)
	assert.Equal(t, levels(sim, pins), legible[0])

	// segment A goes off and on again six times
	var toggles int
	for _, line := range sim.Audit()[mark:] {
		if line == "gpio 93 false" || line == "gpio 93 true" {
			toggles++
		}
	}
	assert.Equal(t, toggles, 12)
}

func TestBlinkInterval(t *testing.T) {
	sim := bridge.NewSim()
	dev, err := bridge.Open(sim, 0)
	assert.NilError(t, err)
	clock := simclock.New()
	d := New(dev, DefaultPins(), clock, WithBlinkInterval(50*time.Millisecond), WithDebugDump(true))
	assert.NilError(t, d.Configure())

	assert.NilError(t, d.Blink(7, 2))
	assert.Equal(t, clock.Slept(), 200*time.Millisecond)
}

func TestDump(t *testing.T) {
	assert.Equal(t, Dump(digitMasks[8]), " - \n| |\n - \n| |\n - ")
	assert.Equal(t, Dump(digitMasks[1]), "   \n  |\n   \n  |\n   ")
	assert.Equal(t, Dump(0), "   \n   \n   \n   \n   ")
}
