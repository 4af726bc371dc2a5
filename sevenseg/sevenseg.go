// Package sevenseg drives a single common-cathode 7-segment digit with one
// GPIO line per segment (HIGH = lit).
package sevenseg

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
)

// Segment order is A..G, A at the top going clockwise, G in the middle.
const (
	SegA = iota
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
	NumSegments
)

// Blank is the "nothing shown" digit value.
const Blank = -1

const BlinkInterval = 200 * time.Millisecond

var ErrNotConfigured = errors.New("segment pins not configured")

// Pins maps segments A..G to GPIO line numbers.
type Pins [NumSegments]int

// DefaultPins is the wiring on the bridge board.
func DefaultPins() Pins {
	return Pins{93, 92, 71, 78, 76, 95, 70}
}

// Pattern holds the level of each segment, A..G.
type Pattern [NumSegments]bool

// bit n is segment n
var digitMasks = [10]byte{
	0x3F, // 0
	0x06, // 1
	0x5B, // 2
	0x4F, // 3
	0x66, // 4
	0x6D, // 5
	0x7D, // 6
	0x07, // 7
	0x7F, // 8
	0x6F, // 9
}

// MaskFor returns the segment mask of digit d.
func MaskFor(d int) (byte, bool) {
	if d < 0 || d > 9 {
		return 0, false
	}
	return digitMasks[d], true
}

// PatternFor returns the segment levels of digit d, or all off when d is
// not a decimal digit.
func PatternFor(d int) (Pattern, bool) {
	m, ok := MaskFor(d)
	return PatternFromMask(m), ok
}

func PatternFromMask(m byte) Pattern {
	var p Pattern
	for i := range p {
		p[i] = m&(1<<uint(i)) != 0
	}
	return p
}

func (p Pattern) Mask() byte {
	var m byte
	for i, on := range p {
		if on {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Lookup maps levels back to the digit they show. All off is Blank.
func Lookup(p Pattern) (int, bool) {
	m := p.Mask()
	if m == 0 {
		return Blank, true
	}
	for d, dm := range digitMasks {
		if dm == m {
			return d, true
		}
	}
	return Blank, false
}

// GPIO is what the digit needs from the bridge.
type GPIO interface {
	ConfigureGPIO(pin int) error
	SetGPIO(pin int, high bool) error
}

type Display struct {
	gpio       GPIO
	pins       Pins
	clock      clockwork.Clock
	logger     *log.Logger
	interval   time.Duration
	dump       bool
	configured bool
	current    int
}

type Option func(*Display)

func WithLogger(l *log.Logger) Option {
	return func(d *Display) { d.logger = l }
}

// WithDebugDump logs every change as ASCII art.
func WithDebugDump(on bool) Option {
	return func(d *Display) { d.dump = on }
}

func WithBlinkInterval(i time.Duration) Option {
	return func(d *Display) {
		if i > 0 {
			d.interval = i
		}
	}
}

func New(gpio GPIO, pins Pins, clock clockwork.Clock, opts ...Option) *Display {
	d := &Display{
		gpio:     gpio,
		pins:     pins,
		clock:    clock,
		logger:   log.New(os.Stderr, "[SEG] ", log.LstdFlags),
		interval: BlinkInterval,
		current:  Blank,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Configure makes every segment line an output. It only does so once; a
// failure on any pin leaves the display unusable.
func (d *Display) Configure() error {
	if d.configured {
		return nil
	}
	for i, pin := range d.pins {
		if err := d.gpio.ConfigureGPIO(pin); err != nil {
			return fmt.Errorf("segment %c (gpio %d): %w", 'A'+i, pin, err)
		}
	}
	d.configured = true
	d.logger.Printf("7-segment GPIO configured")
	return nil
}

// Current is the digit last shown, or Blank.
func (d *Display) Current() int {
	return d.current
}

// DisplayDigit shows d, anything outside 0..9 turns every segment off.
func (d *Display) DisplayDigit(digit int) error {
	p, ok := PatternFor(digit)
	if !ok {
		digit = Blank
	}
	return d.apply(digit, p)
}

func (d *Display) Off() error {
	return d.apply(Blank, Pattern{})
}

// Blink flashes digit count times, ending with it shown.
func (d *Display) Blink(digit, count int) error {
	var err error
	for i := 0; i < count; i++ {
		if e := d.Off(); err == nil {
			err = e
		}
		d.clock.Sleep(d.interval)
		if e := d.DisplayDigit(digit); err == nil {
			err = e
		}
		d.clock.Sleep(d.interval)
	}
	return err
}

// apply sets every pin. A pin that fails is logged and skipped so the
// rest of the digit still renders; the first failure is returned.
func (d *Display) apply(digit int, p Pattern) error {
	if !d.configured {
		return ErrNotConfigured
	}
	var err error
	for i, pin := range d.pins {
		if e := d.gpio.SetGPIO(pin, p[i]); e != nil {
			d.logger.Printf("segment %c (gpio %d): %v", 'A'+i, pin, e)
			if err == nil {
				err = e
			}
		}
	}
	if d.dump && digit != d.current {
		d.logger.Printf("digit %d\n%s", digit, Dump(p.Mask()))
	}
	d.current = digit
	return err
}
