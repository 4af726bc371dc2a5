// Package bridge describes the USB bridge that exposes GPIO and I2C
// primitives, and owns the single open connection to it.
package bridge

import (
	"errors"
	"fmt"
	"log"
	"os"
)

// Handle identifies an opened bridge connection.
type Handle int

// InvalidHandle is the "nothing open" state.
const InvalidHandle Handle = -1

var (
	ErrInvalidHandle = errors.New("invalid_handle")
	ErrNoHubs        = errors.New("no_hubs")
	ErrUnknownPin    = errors.New("unknown_pin")
)

// Port is the raw capability set of the bridge. Implementations report
// failures through the returned error; LastError gives the vendor code for
// the most recent failure on that handle.
type Port interface {
	HubCount() (int, error)
	Open(index int) (Handle, error)
	Close(h Handle) error
	LastError(h Handle) uint32
	ConfigureGPIO(h Handle, pin int) error
	SetGPIO(h Handle, pin int, high bool) error
	ConfigureI2C(h Handle, clockRate, preset int) error
	WriteI2C(h Handle, data []byte, addr uint8) error
}

// Versioner is implemented by ports that can report a driver version.
type Versioner interface {
	Version() (string, error)
}

// OpError carries the bridge's error code for a failed operation.
type OpError struct {
	Op   string
	Code uint32
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: error = 0x%x: %v", e.Op, e.Code, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Device is the hardware session: a Port plus the handle it opened. It is
// not safe for concurrent use; one control goroutine owns it.
type Device struct {
	port   Port
	handle Handle
	logger *log.Logger
}

// Option configures a Device.
type Option func(*Device)

// WithLogger replaces the default "[BRIDGE] " stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// Open enumerates hubs and opens the one at index.
func Open(port Port, index int, opts ...Option) (*Device, error) {
	d := &Device{
		port:   port,
		handle: InvalidHandle,
		logger: log.New(os.Stderr, "[BRIDGE] ", log.LstdFlags),
	}
	for _, o := range opts {
		o(d)
	}

	if v, ok := port.(Versioner); ok {
		if ver, err := v.Version(); err == nil {
			d.logger.Printf("bridge version: %s", ver)
		}
	}

	hubs, err := port.HubCount()
	if err != nil {
		return nil, err
	}
	d.logger.Printf("Hubs found: %d", hubs)
	if hubs <= 0 {
		return nil, ErrNoHubs
	}

	h, err := port.Open(index)
	if err != nil {
		return nil, d.fail("Open", err)
	}
	if h == InvalidHandle {
		return nil, d.fail("Open", ErrInvalidHandle)
	}
	d.handle = h
	return d, nil
}

// Valid reports whether the device still holds an open handle.
func (d *Device) Valid() bool {
	return d != nil && d.handle != InvalidHandle
}

// Close releases the handle. Calling it again is a no-op.
func (d *Device) Close() error {
	if !d.Valid() {
		return nil
	}
	err := d.port.Close(d.handle)
	d.handle = InvalidHandle
	if err != nil {
		d.logger.Printf("FAIL: Close: %v", err)
	}
	return err
}

func (d *Device) ConfigureI2C(clockRate, preset int) error {
	if !d.Valid() {
		return ErrInvalidHandle
	}
	if err := d.port.ConfigureI2C(d.handle, clockRate, preset); err != nil {
		return d.fail("ConfigureI2C", err)
	}
	return nil
}

func (d *Device) ConfigureGPIO(pin int) error {
	if !d.Valid() {
		return ErrInvalidHandle
	}
	if err := d.port.ConfigureGPIO(d.handle, pin); err != nil {
		d.logger.Printf("Failed to configure GPIO %d", pin)
		return d.fail("ConfigureGPIO", err)
	}
	return nil
}

func (d *Device) SetGPIO(pin int, high bool) error {
	if !d.Valid() {
		return ErrInvalidHandle
	}
	if err := d.port.SetGPIO(d.handle, pin, high); err != nil {
		return d.fail("SetGPIO", err)
	}
	return nil
}

// WriteI2C sends data to the device at addr.
func (d *Device) WriteI2C(addr uint8, data []byte) error {
	if !d.Valid() {
		return ErrInvalidHandle
	}
	if err := d.port.WriteI2C(d.handle, data, addr); err != nil {
		return d.fail("WriteI2C", err)
	}
	return nil
}

// fail logs the port's last error code and wraps err with it.
func (d *Device) fail(op string, err error) error {
	if d.handle == InvalidHandle {
		d.logger.Printf("%s failed (no error info): %v", op, err)
		return &OpError{Op: op, Err: err}
	}
	code := d.port.LastError(d.handle)
	d.logger.Printf("FAIL: %s error = 0x%x", op, code)
	return &OpError{Op: op, Code: code, Err: err}
}
