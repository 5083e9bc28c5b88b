package device

import (
	"github.com/sweeney/hestia/internal/i2c"
	"github.com/sweeney/hestia/internal/reading"
)

// MAX31725 bus addresses as fitted.
const (
	Max31725U4 i2c.Addr = 0x48
	Max31725U5 i2c.Addr = 0x4F
	Max31725U6 i2c.Addr = 0x49
	Max31725U7 i2c.Addr = 0x4B
)

// Max31725RegTemp is the temperature register.
const Max31725RegTemp i2c.Reg = 0x00

// Max31725 is a discrete digital temperature sensor.
type Max31725 struct {
	dev i2c.Device
}

// NewMax31725 creates the driver for a MAX31725 at addr.
func NewMax31725(bus i2c.Bus, addr i2c.Addr) *Max31725 {
	return &Max31725{dev: i2c.BigEndian(bus, addr, "max31725@"+addr.String())}
}

func (m *Max31725) String() string {
	return m.dev.String()
}

// Max31725Celsius decodes the Q8 two's complement temperature register.
func Max31725Celsius(raw uint16) float64 {
	return float64(int16(raw)) / 256
}

// ReadRaw returns the temperature register contents.
func (m *Max31725) ReadRaw(name string) (uint16, error) {
	raw, err := m.dev.ReadU16(Max31725RegTemp, name)
	if err != nil {
		return 0, &reading.BusError{Sensor: name, Err: err}
	}
	return raw, nil
}

// ReadTemp returns the temperature in °C.
func (m *Max31725) ReadTemp(name string) (reading.Value[float64], error) {
	raw, err := m.ReadRaw(name)
	if err != nil {
		return reading.Value[float64]{}, err
	}
	return reading.Value[float64]{Raw: raw, Display: Max31725Celsius(raw)}, nil
}
