// Package calibration converts raw ADC codes into physical units.
//
// The constants are the physical calibration of the fitted parts and must not
// change: logged data from earlier runs was produced with exactly these values.
package calibration

import (
	"fmt"
	"math"

	"github.com/sweeney/hestia/internal/reading"
)

const (
	// Resolution is the code range of every ADC on the board (12 bit).
	Resolution uint16 = 1 << 12

	// MinCode is the lowest valid code; a disconnected input floats below it.
	MinCode uint16 = 0x0010
	// MaxCode is the first invalid high code; a saturated ADC reads 0x0FFF.
	MaxCode uint16 = 0x0FFF

	// VRef is the microcontroller ADC reference, measured with VCC at 5.0 V.
	VRef = 3.35
	// VoltageDivider is the divider ratio on the voltage sense channels.
	VoltageDivider = 2.0

	zeroCelsius = 273.15
	// NB21K00103 thermistor.
	refTempK = 25.0 + zeroCelsius
	bValue   = 3630.0

	// MinSetpoint and MaxSetpoint bound temperatures that may be written.
	MinSetpoint = -55.0
	MaxSetpoint = 150.0
)

// CheckCode returns ErrValueOutOfRange if code is outside [MinCode, MaxCode).
func CheckCode(code uint16) error {
	if code < MinCode || code >= MaxCode {
		return reading.ErrValueOutOfRange
	}
	return nil
}

// CodeToTemp converts a thermistor ADC code into °C.
func CodeToTemp(code, resolution uint16) (float64, error) {
	if err := CheckCode(code); err != nil {
		return 0, err
	}
	ratio := float64(resolution)/float64(code) - 1
	if ratio <= 0 {
		return 0, reading.ErrValueOutOfRange
	}
	return 1/(1/refTempK+math.Log(ratio)/bValue) - zeroCelsius, nil
}

// TempToCode converts a temperature in °C into the code the thermistor
// channel would read, for writing setpoints. temp must be inside
// (MinSetpoint, MaxSetpoint).
func TempToCode(temp float64) (uint16, error) {
	if !(temp > MinSetpoint && temp < MaxSetpoint) {
		return 0, fmt.Errorf("temperature %.2f°C outside (%.0f, %.0f): %w",
			temp, MinSetpoint, MaxSetpoint, reading.ErrValueOutOfRange)
	}
	x := math.Exp((1/(temp+zeroCelsius) - 1/refTempK) * bValue)
	return uint16(math.Round(float64(Resolution) / (x + 1))), nil
}

// CodeToVoltage converts a voltage sense code into volts, including the divider.
func CodeToVoltage(code uint16) float64 {
	return float64(code) / float64(Resolution) * VRef * VoltageDivider
}

// CodeToCurrentSense converts a current sense code into volts across the
// sense input. There is no divider on this channel.
func CodeToCurrentSense(code uint16) float64 {
	return float64(code) / float64(Resolution) * VRef
}
