package device

import (
	"fmt"
	"log"

	"github.com/sweeney/hestia/internal/calibration"
	"github.com/sweeney/hestia/internal/i2c"
	"github.com/sweeney/hestia/internal/reading"
)

// ADS7828 bus addresses. The address strap changed between board revisions.
const (
	Ads7828AddrV1 i2c.Addr = 0x48
	Ads7828AddrV2 i2c.Addr = 0x4A
)

// Ads7828 is the 8 channel multiplexing ADC carrying the offboard thermistors.
type Ads7828 struct {
	dev i2c.Device
}

// NewAds7828 creates the driver for an ADS7828 at addr.
func NewAds7828(bus i2c.Bus, addr i2c.Addr) *Ads7828 {
	return &Ads7828{dev: i2c.BigEndian(bus, addr, "ads7828")}
}

func (a *Ads7828) String() string {
	return a.dev.String()
}

// ChannelSelect maps a logical channel onto the C2..C0 bits: the low bit of
// the channel picks odd/even, the remaining bits pick the pair.
func ChannelSelect(channel uint8) uint8 {
	return ((channel & 0x01) << 2) | (channel >> 1)
}

// Command builds the command byte for a single-ended conversion on channel,
// with SD=1 (bit 7) and PD0=1 (bit 2).
func Command(channel uint8) i2c.Reg {
	return i2c.Reg(0x84 | ChannelSelect(channel)<<4)
}

// ReadRaw returns the 12-bit code of channel.
func (a *Ads7828) ReadRaw(channel uint8, name string) (uint16, error) {
	cmd := Command(channel)
	raw, err := a.dev.ReadU16(cmd, name)
	if err != nil {
		return 0, &reading.BusError{Sensor: name, Err: err}
	}
	return raw, nil
}

// ReadTemp reads a thermistor on channel.
func (a *Ads7828) ReadTemp(channel uint8, name string) (reading.Value[float64], error) {
	raw, err := a.ReadRaw(channel, name)
	if err != nil {
		return reading.Value[float64]{}, err
	}
	t, err := calibration.CodeToTemp(raw, calibration.Resolution)
	if err != nil {
		log.Printf("%s: %s code 0x%04x out of range", a, name, raw)
		return reading.Value[float64]{Raw: raw}, fmt.Errorf("%s: %w", name, err)
	}
	return reading.Value[float64]{Raw: raw, Display: t}, nil
}
