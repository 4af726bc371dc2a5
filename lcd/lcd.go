// Package lcd drives a 16x2 HD44780 character display in 4-bit mode
// through a PCF8574 I2C backpack. Every expander write carries the whole
// pin state (backlight, enable, register select and one data nibble).
package lcd

import (
	"log"
	"os"
	"strings"
	"time"

	"dscheirer.com/shifttimer/mathx"
	"github.com/jonboulle/clockwork"
)

const (
	Width          = 16
	Rows           = 2
	DefaultAddress = 0x27
)

// backpack bits, RW is tied low
const (
	bitRS        = 0x01
	bitEnable    = 0x04
	bitBacklight = 0x08
)

const (
	cmdClear        = 0x01
	cmdEntryLTR     = 0x06
	cmdDisplayOn    = 0x0C
	cmdFunction     = 0x28 // 4-bit, 2 lines
	cmdSetDDRAMAddr = 0x80
	nibbleReset     = 0x30
	nibble4Bit      = 0x20
)

const (
	powerUpDelay = 50 * time.Millisecond
	resetDelay   = 5 * time.Millisecond
	pulseDelay   = time.Millisecond
	clearDelay   = 2 * time.Millisecond
)

var rowOffsets = [Rows]byte{0x00, 0x40}

// lineCells is the DDRAM length of one line, visible or not.
const lineCells = 0x28

// Bus is the one primitive the display needs.
type Bus interface {
	WriteI2C(addr uint8, data []byte) error
}

type Display struct {
	bus    Bus
	addr   uint8
	clock  clockwork.Clock
	logger *log.Logger
	last   byte
}

type Option func(*Display)

func WithLogger(l *log.Logger) Option {
	return func(d *Display) { d.logger = l }
}

func New(bus Bus, addr uint8, clock clockwork.Clock, opts ...Option) *Display {
	d := &Display{
		bus:    bus,
		addr:   addr,
		clock:  clock,
		logger: log.New(os.Stderr, "[LCD] ", log.LstdFlags),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Last is the most recent byte sent to the expander.
func (d *Display) Last() byte {
	return d.last
}

// Init runs the reset-by-instruction sequence and leaves the display on,
// cleared, 4-bit, two lines, cursor off, writing left to right.
func (d *Display) Init() error {
	d.clock.Sleep(powerUpDelay)

	var err error
	for i := 0; i < 3; i++ {
		err = first(err, d.write4(nibbleReset))
		d.clock.Sleep(resetDelay)
	}
	err = first(err, d.write4(nibble4Bit))
	err = first(err, d.Command(cmdFunction))
	err = first(err, d.Command(cmdDisplayOn))
	err = first(err, d.Clear())
	err = first(err, d.Command(cmdEntryLTR))
	if err != nil {
		d.logger.Printf("init incomplete: %v", err)
	}
	return err
}

func (d *Display) Command(b byte) error {
	return d.send(b, 0)
}

func (d *Display) Data(b byte) error {
	return d.send(b, bitRS)
}

// Clear blanks the display; it needs longer to settle than other commands.
func (d *Display) Clear() error {
	err := d.Command(cmdClear)
	d.clock.Sleep(clearDelay)
	return err
}

// SetCursor moves to col on row. Both are clamped, col to the 40 DDRAM
// cells of a line so it never lands in the other row.
func (d *Display) SetCursor(col, row int) error {
	row = mathx.Clamp(row, 0, Rows-1)
	col = mathx.Clamp(col, 0, lineCells-1)
	return d.Command(cmdSetDDRAMAddr | (byte(col) + rowOffsets[row]))
}

// PrintPadded writes text cut or space-filled to exactly width characters,
// so nothing from a longer previous message survives. A width of zero
// or less means the panel width.
func (d *Display) PrintPadded(text string, width int) error {
	if width <= 0 {
		width = Width
	}
	var err error
	out := Pad(text, width)
	for i := 0; i < len(out); i++ {
		err = first(err, d.Data(out[i]))
	}
	return err
}

// ShowLines clears the display and writes both lines.
func (d *Display) ShowLines(line1, line2 string) error {
	err := d.Clear()
	err = first(err, d.SetCursor(0, 0))
	err = first(err, d.PrintPadded(line1, Width))
	err = first(err, d.SetCursor(0, 1))
	err = first(err, d.PrintPadded(line2, Width))
	return err
}

// Pad truncates s to width bytes or right-pads it with spaces.
func Pad(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// send splits b into two nibbles, high first.
func (d *Display) send(b byte, mode byte) error {
	err := d.write4(b&0xF0 | mode)
	return first(err, d.write4((b<<4)&0xF0|mode))
}

// write4 puts one nibble on the data lines and strobes it in. A failed
// write does not stop the strobe, the controller would otherwise lose
// nibble alignment.
func (d *Display) write4(bits byte) error {
	bits |= bitBacklight
	err := d.expanderWrite(bits)
	return first(err, d.pulseEnable(bits))
}

func (d *Display) pulseEnable(bits byte) error {
	err := d.expanderWrite(bits | bitEnable)
	d.clock.Sleep(pulseDelay)
	err = first(err, d.expanderWrite(bits&^bitEnable))
	d.clock.Sleep(pulseDelay)
	return err
}

func (d *Display) expanderWrite(b byte) error {
	d.last = b
	return d.bus.WriteI2C(d.addr, []byte{b})
}

func first(err, next error) error {
	if err != nil {
		return err
	}
	return next
}
