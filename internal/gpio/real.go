//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives lines through the Linux GPIO character device. Lines stay
// requested, and so hold their level, until Close.
type RealOutput struct {
	lines map[int]*gpiocdev.Line
}

// NewRealOutput creates an output with no lines claimed.
func NewRealOutput() *RealOutput {
	return &RealOutput{lines: make(map[int]*gpiocdev.Line)}
}

func value(high bool) int {
	if high {
		return 1
	}
	return 0
}

// Set drives a line, requesting it as an output on first use.
func (o *RealOutput) Set(line int, high bool) error {
	if l, ok := o.lines[line]; ok {
		if err := l.SetValue(value(high)); err != nil {
			return fmt.Errorf("set line %d: %w", line, err)
		}
		return nil
	}

	chip, offset := Location(line)
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(value(high)),
		gpiocdev.WithConsumer("hestia"))
	if err != nil {
		return fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}
	o.lines[line] = l
	return nil
}

// Close releases every claimed line.
func (o *RealOutput) Close() error {
	var errs []error
	for n, l := range o.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", n, err))
		}
		delete(o.lines, n)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
