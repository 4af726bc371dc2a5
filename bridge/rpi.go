package bridge

import (
	"errors"
	"fmt"
	"log"
	"syscall"

	"dscheirer.com/shifttimer/i2c"
	"github.com/stianeikeland/go-rpio"
)

// bcmPins is the number of GPIO lines go-rpio can address.
const bcmPins = 54

// errGeneric is reported by LastError when a failure carried no errno.
const errGeneric = 0xFFFF

// RPi is a Port for a Raspberry Pi wired straight to the panel: segment
// lines on BCM GPIOs, the expander on an i2c-dev bus. Hub index N is the
// Nth bus present, so index 0 is /dev/i2c-1 on a stock Pi. With Simulated
// set no hardware is touched and writes are only logged.
type RPi struct {
	Simulated bool

	buses   func() ([]int, error)
	bus     *i2c.Bus
	handle  Handle
	lastErr uint32
}

func NewRPi(simulated bool) *RPi {
	r := &RPi{Simulated: simulated, handle: InvalidHandle, buses: i2c.Buses}
	if simulated {
		r.buses = func() ([]int, error) { return []int{1}, nil }
	}
	return r
}

func (r *RPi) HubCount() (int, error) {
	buses, err := r.buses()
	if err != nil {
		return 0, err
	}
	return len(buses), nil
}

func (r *RPi) Open(index int) (Handle, error) {
	buses, err := r.buses()
	if err != nil {
		r.record(err)
		return InvalidHandle, err
	}
	if index < 0 || index >= len(buses) {
		r.record(ErrNoHubs)
		return InvalidHandle, fmt.Errorf("hub %d of %d: %w", index, len(buses), ErrNoHubs)
	}
	n := buses[index]

	bus, err := i2c.Open(n, r.Simulated)
	if err != nil {
		r.record(err)
		return InvalidHandle, err
	}
	if !r.Simulated {
		if err := rpio.Open(); err != nil {
			bus.Close()
			r.record(err)
			return InvalidHandle, err
		}
	}
	r.bus = bus
	r.handle = Handle(n)
	return r.handle, nil
}

func (r *RPi) Close(h Handle) error {
	if h != r.handle || h == InvalidHandle {
		return ErrInvalidHandle
	}
	err := r.bus.Close()
	if !r.Simulated {
		if gerr := rpio.Close(); err == nil {
			err = gerr
		}
	}
	r.handle = InvalidHandle
	r.bus = nil
	return err
}

func (r *RPi) LastError(h Handle) uint32 {
	return r.lastErr
}

func (r *RPi) ConfigureGPIO(h Handle, pin int) error {
	if h != r.handle || h == InvalidHandle {
		return ErrInvalidHandle
	}
	if pin < 0 || pin >= bcmPins {
		r.record(ErrUnknownPin)
		return ErrUnknownPin
	}
	if r.Simulated {
		log.Printf("gpio %d: output", pin)
		return nil
	}
	rpio.Pin(pin).Output()
	return nil
}

func (r *RPi) SetGPIO(h Handle, pin int, high bool) error {
	if h != r.handle || h == InvalidHandle {
		return ErrInvalidHandle
	}
	if pin < 0 || pin >= bcmPins {
		r.record(ErrUnknownPin)
		return ErrUnknownPin
	}
	if r.Simulated {
		return nil
	}
	p := rpio.Pin(pin)
	if high {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// ConfigureI2C is accepted as-is: the bus clock on a Pi is fixed by the
// kernel (dtparam i2c_arm_baudrate), not per open.
func (r *RPi) ConfigureI2C(h Handle, clockRate, preset int) error {
	if h != r.handle || h == InvalidHandle {
		return ErrInvalidHandle
	}
	log.Printf("i2c-%d: clock rate %d preset %d (kernel controlled)", int(h), clockRate, preset)
	return nil
}

func (r *RPi) WriteI2C(h Handle, data []byte, addr uint8) error {
	if h != r.handle || h == InvalidHandle {
		return ErrInvalidHandle
	}
	if _, err := r.bus.WriteTo(addr, data); err != nil {
		r.record(err)
		return err
	}
	return nil
}

func (r *RPi) record(err error) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		r.lastErr = uint32(errno)
		return
	}
	r.lastErr = errGeneric
}
