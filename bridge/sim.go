package bridge

import (
	"errors"
	"fmt"
	"sort"
)

var errInjected = errors.New("injected failure")

// Sim is an in-memory Port. It records every GPIO change in an audit
// trail, keeps the raw bytes written to each I2C address, and decodes
// those bytes into what an HD44780 panel behind the expander would show.
// Failures can be injected per operation.
type Sim struct {
	Hubs          int
	FailOpen      bool
	FailI2CConfig bool
	FailI2C       bool
	FailConfigure map[int]bool
	FailSet       map[int]bool
	// ErrCode is what LastError reports after an injected failure.
	ErrCode uint32
	// OnChange, when set, runs after every successful GPIO set or I2C write.
	OnChange func()

	handle     Handle
	opened     int
	closed     int
	lastErr    uint32
	clockRate  int
	preset     int
	i2cReady   bool
	configured map[int]bool
	levels     map[int]bool
	written    map[uint8][]byte
	panels     map[uint8]*hd44780
	audit      []string
}

// NewSim returns a simulator with one hub attached.
func NewSim() *Sim {
	return &Sim{
		Hubs:          1,
		FailConfigure: map[int]bool{},
		FailSet:       map[int]bool{},
		ErrCode:       0x1F,
		handle:        InvalidHandle,
		configured:    map[int]bool{},
		levels:        map[int]bool{},
		written:       map[uint8][]byte{},
		panels:        map[uint8]*hd44780{},
	}
}

func (s *Sim) Version() (string, error) {
	return "sim-1.0", nil
}

func (s *Sim) HubCount() (int, error) {
	return s.Hubs, nil
}

func (s *Sim) Open(index int) (Handle, error) {
	if s.FailOpen || index < 0 || index >= s.Hubs {
		s.lastErr = s.ErrCode
		return InvalidHandle, fmt.Errorf("open hub %d: %w", index, errInjected)
	}
	s.opened++
	s.handle = Handle(index + 1)
	s.log("open %d", index)
	return s.handle, nil
}

func (s *Sim) Close(h Handle) error {
	if err := s.check(h); err != nil {
		return err
	}
	s.closed++
	s.handle = InvalidHandle
	s.log("close")
	return nil
}

func (s *Sim) LastError(h Handle) uint32 {
	return s.lastErr
}

func (s *Sim) ConfigureGPIO(h Handle, pin int) error {
	if err := s.check(h); err != nil {
		return err
	}
	if s.FailConfigure[pin] {
		s.lastErr = s.ErrCode
		return fmt.Errorf("configure gpio %d: %w", pin, errInjected)
	}
	s.configured[pin] = true
	s.log("gpio %d output", pin)
	return nil
}

func (s *Sim) SetGPIO(h Handle, pin int, high bool) error {
	if err := s.check(h); err != nil {
		return err
	}
	if !s.configured[pin] {
		s.lastErr = s.ErrCode
		return fmt.Errorf("set gpio %d: %w", pin, ErrUnknownPin)
	}
	if s.FailSet[pin] {
		s.lastErr = s.ErrCode
		return fmt.Errorf("set gpio %d: %w", pin, errInjected)
	}
	if s.levels[pin] != high {
		s.log("gpio %d %v", pin, high)
	}
	s.levels[pin] = high
	s.changed()
	return nil
}

func (s *Sim) ConfigureI2C(h Handle, clockRate, preset int) error {
	if err := s.check(h); err != nil {
		return err
	}
	if s.FailI2CConfig {
		s.lastErr = s.ErrCode
		return fmt.Errorf("configure i2c: %w", errInjected)
	}
	s.clockRate, s.preset, s.i2cReady = clockRate, preset, true
	s.log("i2c rate=%d preset=%d", clockRate, preset)
	return nil
}

func (s *Sim) WriteI2C(h Handle, data []byte, addr uint8) error {
	if err := s.check(h); err != nil {
		return err
	}
	if s.FailI2C || !s.i2cReady {
		s.lastErr = s.ErrCode
		return fmt.Errorf("write i2c 0x%02x: %w", addr, errInjected)
	}
	s.written[addr] = append(s.written[addr], data...)
	p, ok := s.panels[addr]
	if !ok {
		p = newHD44780()
		s.panels[addr] = p
	}
	for _, b := range data {
		p.write(b)
	}
	s.changed()
	return nil
}

func (s *Sim) check(h Handle) error {
	if h == InvalidHandle || h != s.handle {
		return ErrInvalidHandle
	}
	return nil
}

func (s *Sim) log(format string, args ...interface{}) {
	s.audit = append(s.audit, fmt.Sprintf(format, args...))
}

func (s *Sim) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}

// Audit returns the lifecycle and GPIO history.
func (s *Sim) Audit() []string {
	return append([]string(nil), s.audit...)
}

// IsOpen reports whether a handle is currently open.
func (s *Sim) IsOpen() bool { return s.handle != InvalidHandle }

// Opens and Closes count lifecycle calls.
func (s *Sim) Opens() int  { return s.opened }
func (s *Sim) Closes() int { return s.closed }

// I2CConfig returns the last accepted clock rate and preset.
func (s *Sim) I2CConfig() (int, int) { return s.clockRate, s.preset }

// Level returns the current level of pin.
func (s *Sim) Level(pin int) bool { return s.levels[pin] }

// Configured reports whether pin was configured as an output.
func (s *Sim) Configured(pin int) bool { return s.configured[pin] }

// ConfiguredPins lists configured pins in ascending order.
func (s *Sim) ConfiguredPins() []int {
	pins := make([]int, 0, len(s.configured))
	for p := range s.configured {
		pins = append(pins, p)
	}
	sort.Ints(pins)
	return pins
}

// Written returns every byte written to addr.
func (s *Sim) Written(addr uint8) []byte {
	return append([]byte(nil), s.written[addr]...)
}

// ResetWritten forgets the bytes written so far without touching the
// decoded panel.
func (s *Sim) ResetWritten() {
	s.written = map[uint8][]byte{}
}

// Line returns the first width characters of a panel row at addr.
func (s *Sim) Line(addr uint8, row, width int) string {
	p, ok := s.panels[addr]
	if !ok {
		return ""
	}
	return p.line(row, width)
}

// Clears counts clear-display commands seen at addr.
func (s *Sim) Clears(addr uint8) int {
	if p, ok := s.panels[addr]; ok {
		return p.clears
	}
	return 0
}

// PanelOn reports display-on and backlight state of the panel at addr.
func (s *Sim) PanelOn(addr uint8) (display, backlight bool) {
	if p, ok := s.panels[addr]; ok {
		return p.displayOn, p.backlight
	}
	return false, false
}
