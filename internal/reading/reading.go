// Package reading holds the sensor error taxonomy and the raw/display value
// pair returned by every device read.
package reading

import (
	"errors"
	"fmt"
)

var (
	// ErrValueOutOfRange reports a raw code outside the valid window, or a
	// register value with no defined meaning.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrDisabled reports a sensor that is not fitted on this board revision.
	ErrDisabled = errors.New("sensor disabled")
)

// BusError wraps a transport failure with the logical sensor it was reading.
type BusError struct {
	Sensor string
	Err    error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("i2c error reading %s: %v", e.Sensor, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// Value is a raw register code and its interpreted display value.
type Value[T any] struct {
	Raw     uint16
	Display T
}

// Result is a Value or the error that prevented reading it. Results are kept
// per field so one bad channel does not fail a whole board read.
type Result[T any] struct {
	Value[T]
	Err error
}

// Of combines a driver return pair into a Result.
func Of[T any](v Value[T], err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// Fail returns a Result holding only an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
