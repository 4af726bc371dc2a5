// Package i2c writes raw bytes to devices on a Linux i2c-dev bus.
package i2c

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"syscall"
)

const (
	I2C_SLAVE = 0x0703
)

// devDir holds the i2c-N device nodes.
var devDir = "/dev"

// Bus is an open /dev/i2c-N. In simulated mode nothing is opened and
// every write is logged instead.
type Bus struct {
	fd       *os.File
	bus      int
	selected int
	sim      bool
}

// Buses returns the i2c-dev bus numbers present on this host, lowest
// first.
func Buses() ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(devDir, "i2c-*"))
	if err != nil {
		return nil, err
	}
	var buses []int
	for _, m := range matches {
		var n int
		if _, err := fmt.Sscanf(filepath.Base(m), "i2c-%d", &n); err == nil {
			buses = append(buses, n)
		}
	}
	sort.Ints(buses)
	return buses, nil
}

func Open(bus int, simulated bool) (*Bus, error) {
	if simulated {
		return &Bus{bus: bus, selected: -1, sim: true}, nil
	}
	f, err := os.OpenFile(filepath.Join(devDir, fmt.Sprintf("i2c-%d", bus)), os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	return &Bus{fd: f, bus: bus, selected: -1}, nil
}

func (b *Bus) Close() error {
	if b.sim {
		log.Printf("i2c-%d: close", b.bus)
		return nil
	}
	return b.fd.Close()
}

// WriteTo addresses the slave at addr and writes buf to it.
func (b *Bus) WriteTo(addr uint8, buf []byte) (int, error) {
	// not MT safe, the slave address is per file descriptor
	if err := b.selectSlave(addr); err != nil {
		return 0, err
	}
	if b.sim {
		log.Printf("i2c-%d: write 0x%02x % x", b.bus, addr, buf)
		return len(buf), nil
	}
	return b.fd.Write(buf)
}

func (b *Bus) selectSlave(addr uint8) error {
	if int(addr) == b.selected {
		return nil
	}
	if !b.sim {
		if err := ioctl(b.fd.Fd(), I2C_SLAVE, uintptr(addr)); err != nil {
			return err
		}
	}
	b.selected = int(addr)
	return nil
}

func ioctl(fd, cmd, arg uintptr) error {
	_, _, err := syscall.Syscall6(syscall.SYS_IOCTL, fd, cmd, arg, 0, 0, 0)
	if err != 0 {
		return err
	}
	return nil
}
