package device

import (
	"fmt"

	"github.com/sweeney/hestia/internal/calibration"
	"github.com/sweeney/hestia/internal/i2c"
	"github.com/sweeney/hestia/internal/reading"
)

// Msp430Addr is the bus address of the heater microcontroller.
const Msp430Addr i2c.Addr = 0x08

// MSP430 registers. ADC channels occupy 0x01-0x08; the filtered copy of
// channel n is at n+AvgOffset.
const (
	RegVersion i2c.Reg = 0x10
	RegFlags   i2c.Reg = 0x11

	RegReadHeaterMode   i2c.Reg = 0x20
	RegReadTargetTemp   i2c.Reg = 0x21
	RegReadTargetSensor i2c.Reg = 0x22
	RegReadHeaterDuty   i2c.Reg = 0x23
	RegReadMaxTemp      i2c.Reg = 0x24

	RegWriteHeaterMode   i2c.Reg = 0x40
	RegWriteTargetTemp   i2c.Reg = 0x41
	RegWriteTargetSensor i2c.Reg = 0x42
	RegWriteHeaterDuty   i2c.Reg = 0x43
	RegWriteMaxTemp      i2c.Reg = 0x44

	AvgOffset i2c.Reg = 0x30
)

// Duty cycle ranges.
const (
	MaxPWMDuty uint16 = 255
	MaxPIDDuty uint16 = 1000
)

// Msp430 is the microcontroller that drives the heater and digitises the
// onboard thermistors and heater sense lines.
type Msp430 struct {
	dev i2c.Device
}

// NewMsp430 creates the driver for the microcontroller on bus.
func NewMsp430(bus i2c.Bus) *Msp430 {
	return &Msp430{dev: i2c.LittleEndian(bus, Msp430Addr, "msp430")}
}

func (m *Msp430) String() string {
	return m.dev.String()
}

func (m *Msp430) read(reg i2c.Reg, desc string) (uint16, error) {
	raw, err := m.dev.ReadU16(reg, desc)
	if err != nil {
		return 0, &reading.BusError{Sensor: desc, Err: err}
	}
	return raw, nil
}

// ReadADC returns the raw code of an ADC channel register.
func (m *Msp430) ReadADC(reg i2c.Reg, name string) (uint16, error) {
	return m.read(reg, name)
}

// ReadTemp reads a thermistor channel.
func (m *Msp430) ReadTemp(reg i2c.Reg, name string) (reading.Value[float64], error) {
	raw, err := m.read(reg, name)
	if err != nil {
		return reading.Value[float64]{}, err
	}
	t, err := calibration.CodeToTemp(raw, calibration.Resolution)
	if err != nil {
		return reading.Value[float64]{Raw: raw}, fmt.Errorf("%s: %w", name, err)
	}
	return reading.Value[float64]{Raw: raw, Display: t}, nil
}

// ReadVoltage reads a divided voltage sense channel.
func (m *Msp430) ReadVoltage(reg i2c.Reg, name string) (reading.Value[float64], error) {
	raw, err := m.read(reg, name)
	if err != nil {
		return reading.Value[float64]{}, err
	}
	return reading.Value[float64]{Raw: raw, Display: calibration.CodeToVoltage(raw)}, nil
}

// ReadCurrentSense reads the undivided current sense channel.
func (m *Msp430) ReadCurrentSense(reg i2c.Reg, name string) (reading.Value[float64], error) {
	raw, err := m.read(reg, name)
	if err != nil {
		return reading.Value[float64]{}, err
	}
	return reading.Value[float64]{Raw: raw, Display: calibration.CodeToCurrentSense(raw)}, nil
}

// ReadHeaterMode returns the current heater mode.
func (m *Msp430) ReadHeaterMode() (reading.Value[HeaterMode], error) {
	raw, err := m.read(RegReadHeaterMode, "heater mode")
	if err != nil {
		return reading.Value[HeaterMode]{}, err
	}
	mode, err := DecodeHeaterMode(raw)
	return reading.Value[HeaterMode]{Raw: raw, Display: mode}, err
}

// WriteHeaterMode sets the heater mode.
func (m *Msp430) WriteHeaterMode(mode HeaterMode) error {
	return m.dev.WriteU16(RegWriteHeaterMode, "heater mode", uint16(mode))
}

// ReadHeaterDuty returns the duty cycle: 0-255 in PWM mode, 0-1000 (the PID
// output) in PID mode.
func (m *Msp430) ReadHeaterDuty() (reading.Value[uint16], error) {
	raw, err := m.read(RegReadHeaterDuty, "heater duty")
	if err != nil {
		return reading.Value[uint16]{}, err
	}
	return reading.Value[uint16]{Raw: raw, Display: raw}, nil
}

// WriteHeaterDuty sets the PWM duty cycle.
func (m *Msp430) WriteHeaterDuty(duty uint16) error {
	return m.dev.WriteU16(RegWriteHeaterDuty, "heater duty", duty)
}

func (m *Msp430) readTempSetting(reg i2c.Reg, desc string) (reading.Value[float64], error) {
	raw, err := m.read(reg, desc)
	if err != nil {
		return reading.Value[float64]{}, err
	}
	t, err := calibration.CodeToTemp(raw, calibration.Resolution)
	if err != nil {
		return reading.Value[float64]{Raw: raw}, fmt.Errorf("%s: %w", desc, err)
	}
	return reading.Value[float64]{Raw: raw, Display: t}, nil
}

func (m *Msp430) writeTempSetting(reg i2c.Reg, desc string, temp float64) error {
	code, err := calibration.TempToCode(temp)
	if err != nil {
		return fmt.Errorf("%s: %w", desc, err)
	}
	return m.dev.WriteU16(reg, desc, code)
}

// ReadTargetTemp returns the thermostat setpoint.
func (m *Msp430) ReadTargetTemp() (reading.Value[float64], error) {
	return m.readTempSetting(RegReadTargetTemp, "target temp")
}

// WriteTargetTemp sets the thermostat setpoint in °C.
func (m *Msp430) WriteTargetTemp(temp float64) error {
	return m.writeTempSetting(RegWriteTargetTemp, "target temp", temp)
}

// ReadMaxTemp returns the over-temperature cut-out setpoint.
func (m *Msp430) ReadMaxTemp() (reading.Value[float64], error) {
	return m.readTempSetting(RegReadMaxTemp, "max temp")
}

// WriteMaxTemp sets the over-temperature cut-out in °C.
func (m *Msp430) WriteMaxTemp(temp float64) error {
	return m.writeTempSetting(RegWriteMaxTemp, "max temp", temp)
}

// ReadTargetSensor returns the sensor the heater regulates against.
func (m *Msp430) ReadTargetSensor() (reading.Value[TargetSensor], error) {
	raw, err := m.read(RegReadTargetSensor, "target sensor")
	if err != nil {
		return reading.Value[TargetSensor]{}, err
	}
	s, err := DecodeTargetSensor(raw)
	return reading.Value[TargetSensor]{Raw: raw, Display: s}, err
}

// WriteTargetSensor selects the sensor the heater regulates against.
func (m *Msp430) WriteTargetSensor(s TargetSensor) error {
	return m.dev.WriteU16(RegWriteTargetSensor, "target sensor", uint16(s))
}

// ReadFlags returns the decoded status register.
func (m *Msp430) ReadFlags() (reading.Value[Flags], error) {
	raw, err := m.read(RegFlags, "flags")
	if err != nil {
		return reading.Value[Flags]{}, err
	}
	f, err := DecodeFlags(raw)
	return reading.Value[Flags]{Raw: raw, Display: f}, err
}

// ReadVersion returns the firmware version, e.g. raw 220 displays as "2.2".
func (m *Msp430) ReadVersion() (reading.Value[string], error) {
	raw, err := m.read(RegVersion, "version")
	if err != nil {
		return reading.Value[string]{}, err
	}
	return reading.Value[string]{Raw: raw, Display: fmt.Sprintf("%.1f", float64(raw)/100)}, nil
}
