// Package gpio drives the payload enable lines of the host flight computer.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
	"log"
)

// Output sets GPIO output lines, addressed by their global sysfs number.
type Output interface {
	// Set drives a line high or low, claiming it as an output if needed.
	Set(line int, high bool) error

	// Close releases every claimed line.
	Close() error
}

// LinesPerChip is the number of lines on each gpiochip of the host.
const LinesPerChip = 32

// Location maps a global line number to its chip and offset.
func Location(line int) (chip string, offset int) {
	return fmt.Sprintf("gpiochip%d", line/LinesPerChip), line % LinesPerChip
}

// Level is the wanted state of one line.
type Level struct {
	Line int
	High bool
}

// Payload enable and disable sequences, applied in order.
var (
	EnableSequence  = []Level{{45, false}, {47, true}, {27, false}}
	DisableSequence = []Level{{45, false}, {47, false}, {27, false}}
)

// EnablePayload powers the payload.
func EnablePayload(o Output) error {
	return apply(o, EnableSequence)
}

// DisablePayload removes payload power.
func DisablePayload(o Output) error {
	return apply(o, DisableSequence)
}

// apply sets every line even if an earlier one fails.
func apply(o Output, seq []Level) error {
	var errs []error
	for _, l := range seq {
		state := "low"
		if l.High {
			state = "high"
		}
		if err := o.Set(l.Line, l.High); err != nil {
			log.Printf("gpio: could not set line %d %s: %v", l.Line, state, err)
			errs = append(errs, fmt.Errorf("line %d: %w", l.Line, err))
			continue
		}
		log.Printf("gpio: line %d set %s", l.Line, state)
	}
	return errors.Join(errs...)
}
