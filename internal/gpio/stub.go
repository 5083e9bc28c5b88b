//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an output whose writes always fail.
func NewRealOutput() *RealOutput {
	return &RealOutput{}
}

// Set is not implemented on non-Linux platforms.
func (o *RealOutput) Set(line int, high bool) error {
	return errUnsupported
}

// Close is a no-op.
func (o *RealOutput) Close() error {
	return nil
}
