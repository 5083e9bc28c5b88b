// Package i2c provides register-level access to devices on a Linux I2C bus.
// The real implementation uses the Linux i2c-dev character device.
// The fake implementation allows testing without hardware.
package i2c

import (
	"fmt"
	"log"
	"sync/atomic"
)

// Addr is a 7-bit device address on the bus.
type Addr uint8

func (a Addr) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// Reg is an 8-bit register (or command byte) on a device.
type Reg uint8

func (r Reg) String() string {
	return fmt.Sprintf("0x%02x", uint8(r))
}

// Bus performs raw register transactions against devices on one I2C bus.
// It knows nothing about the devices behind the addresses.
type Bus interface {
	// ID returns the bus number, i.e. N in /dev/i2c-N.
	ID() uint8

	// Exists reports whether the bus device node is present at the OS level.
	Exists() bool

	// ReadReg selects reg on the device at addr and reads len(buf) bytes.
	ReadReg(addr Addr, reg Reg, buf []byte) error

	// WriteReg writes data to reg on the device at addr.
	WriteReg(addr Addr, reg Reg, data []byte) error
}

// Path returns the character device path of bus id.
func Path(id uint8) string {
	return fmt.Sprintf("/dev/i2c-%d", id)
}

var trace atomic.Bool

// SetTrace enables logging of successful bus transactions.
// Failures are always logged.
func SetTrace(on bool) {
	trace.Store(on)
}

func tracef(format string, args ...any) {
	if trace.Load() {
		log.Printf(format, args...)
	}
}
