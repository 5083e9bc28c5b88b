// Package device implements the three chip protocols on a Hestia board: the
// MSP430 heater microcontroller, the ADS7828 multiplexing ADC and the
// MAX31725 digital temperature sensor.
package device

import (
	"fmt"
	"strings"

	"github.com/sweeney/hestia/internal/reading"
)

// HeaterMode is the heater control mode register value.
type HeaterMode uint16

const (
	HeaterOff HeaterMode = 0x00
	// HeaterPID regulates toward the target temperature.
	HeaterPID HeaterMode = 0x01
	// HeaterPWM drives a fixed duty cycle.
	HeaterPWM HeaterMode = 0x02
)

func (m HeaterMode) String() string {
	switch m {
	case HeaterOff:
		return "OFF"
	case HeaterPID:
		return "PID"
	case HeaterPWM:
		return "PWM"
	}
	return fmt.Sprintf("HeaterMode(%d)", uint16(m))
}

// ParseHeaterMode accepts a mode name ignoring case. "on" selects PWM and
// "thermostat" selects PID.
func ParseHeaterMode(name string) (HeaterMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "off":
		return HeaterOff, nil
	case "pid", "thermostat":
		return HeaterPID, nil
	case "pwm", "on":
		return HeaterPWM, nil
	}
	return 0, fmt.Errorf("unknown heater mode %q (want off, pid or pwm)", name)
}

// DecodeHeaterMode validates a raw mode register value.
func DecodeHeaterMode(raw uint16) (HeaterMode, error) {
	switch m := HeaterMode(raw); m {
	case HeaterOff, HeaterPID, HeaterPWM:
		return m, nil
	}
	return 0, fmt.Errorf("heater mode %d: %w", raw, reading.ErrValueOutOfRange)
}

// TargetSensor selects the sensor the firmware regulates against.
type TargetSensor uint16

const (
	TargetTH1 TargetSensor = iota
	TargetTH2
	TargetTH3
	TargetJ7
	TargetJ8
)

var targetNames = [...]string{"TH1", "TH2", "TH3", "J7", "J8"}

// TargetSensors lists every selectable target sensor in register order.
var TargetSensors = []TargetSensor{TargetTH1, TargetTH2, TargetTH3, TargetJ7, TargetJ8}

func (s TargetSensor) String() string {
	if int(s) < len(targetNames) {
		return targetNames[s]
	}
	return fmt.Sprintf("TargetSensor(%d)", uint16(s))
}

// ParseTargetSensor accepts a sensor name, ignoring case.
func ParseTargetSensor(name string) (TargetSensor, error) {
	for i, n := range targetNames {
		if strings.EqualFold(n, name) {
			return TargetSensor(i), nil
		}
	}
	return 0, fmt.Errorf("unknown target sensor %q (want one of %s)", name, strings.Join(targetNames[:], ", "))
}

// DecodeTargetSensor validates a raw target sensor register value.
func DecodeTargetSensor(raw uint16) (TargetSensor, error) {
	if int(raw) >= len(targetNames) {
		return 0, fmt.Errorf("target sensor %d: %w", raw, reading.ErrValueOutOfRange)
	}
	return TargetSensor(raw), nil
}

// Flags is the decoded board status register.
type Flags uint8

const (
	FlagsOK Flags = iota
	FlagsErrMaxTemp
	FlagsErrUnknown
)

const (
	flagOn      = 1 << 0
	flagMaxTemp = 1 << 1
)

func (f Flags) String() string {
	switch f {
	case FlagsOK:
		return "OK"
	case FlagsErrMaxTemp:
		return "ERR_MAX_TEMP"
	}
	return "ERR_UNKNOWN"
}

// DecodeFlags interprets the powered and max-temp-tripped bits. Any bit
// above those two is invalid.
func DecodeFlags(raw uint16) (Flags, error) {
	switch raw {
	case flagOn:
		return FlagsOK, nil
	case flagOn | flagMaxTemp:
		return FlagsErrMaxTemp, nil
	case 0, flagMaxTemp:
		return FlagsErrUnknown, nil
	}
	return 0, fmt.Errorf("flags 0x%04x: %w", raw, reading.ErrValueOutOfRange)
}
