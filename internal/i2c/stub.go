//go:build !linux

package i2c

import "errors"

var errUnsupported = errors.New("i2c: not supported on this platform (requires Linux)")

// RealBus is not available on non-Linux platforms.
type RealBus struct {
	id uint8
}

// NewRealBus returns a bus whose transactions always fail.
func NewRealBus(id uint8) *RealBus {
	return &RealBus{id: id}
}

// ID returns the bus number.
func (b *RealBus) ID() uint8 {
	return b.id
}

// Exists always reports false on non-Linux platforms.
func (b *RealBus) Exists() bool {
	return false
}

// ReadReg is not implemented on non-Linux platforms.
func (b *RealBus) ReadReg(addr Addr, reg Reg, buf []byte) error {
	return errUnsupported
}

// WriteReg is not implemented on non-Linux platforms.
func (b *RealBus) WriteReg(addr Addr, reg Reg, data []byte) error {
	return errUnsupported
}
