//go:build linux

package i2c

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	pi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// RealBus talks to /dev/i2c-N. The bus is opened for each transaction so a
// board that disappears and comes back does not leave a stale handle.
type RealBus struct {
	id uint8
}

// NewRealBus creates a bus handle for /dev/i2c-<id>.
func NewRealBus(id uint8) *RealBus {
	return &RealBus{id: id}
}

// ID returns the bus number.
func (b *RealBus) ID() uint8 {
	return b.id
}

// Exists reports whether /dev/i2c-<id> is present.
func (b *RealBus) Exists() bool {
	_, err := os.Stat(Path(b.id))
	return err == nil
}

func (b *RealBus) open() (pi2c.BusCloser, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(strconv.Itoa(int(b.id)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", Path(b.id), err)
	}
	return bus, nil
}

// ReadReg writes the register byte and reads len(buf) bytes in one transaction.
func (b *RealBus) ReadReg(addr Addr, reg Reg, buf []byte) error {
	bus, err := b.open()
	if err != nil {
		return err
	}
	defer bus.Close()

	dev := pi2c.Dev{Bus: bus, Addr: uint16(addr)}
	if err := dev.Tx([]byte{byte(reg)}, buf); err != nil {
		return fmt.Errorf("read %s/%s: %w", addr, reg, err)
	}
	return nil
}

// WriteReg writes the register byte followed by data.
func (b *RealBus) WriteReg(addr Addr, reg Reg, data []byte) error {
	bus, err := b.open()
	if err != nil {
		return err
	}
	defer bus.Close()

	w := make([]byte, 0, len(data)+1)
	w = append(w, byte(reg))
	w = append(w, data...)
	dev := pi2c.Dev{Bus: bus, Addr: uint16(addr)}
	if err := dev.Tx(w, nil); err != nil {
		return fmt.Errorf("write %s/%s: %w", addr, reg, err)
	}
	return nil
}
