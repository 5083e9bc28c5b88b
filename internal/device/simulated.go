package device

import (
	"encoding/binary"

	"github.com/sweeney/hestia/internal/i2c"
)

// NewSimulatedBus returns a FakeBus populated with a plausible idle board, for
// running off-target. adsAddr selects where the multiplexing ADC answers.
// Writes to the MSP430 control registers are reflected in the matching read
// registers, as the firmware does.
func NewSimulatedBus(id uint8, adsAddr i2c.Addr) *i2c.FakeBus {
	bus := i2c.NewFakeBus(id)
	le := binary.LittleEndian
	be := binary.BigEndian

	bus.SetU16(Msp430Addr, RegVersion, le, 220)
	bus.SetU16(Msp430Addr, RegFlags, le, 0x1)
	bus.SetU16(Msp430Addr, RegReadHeaterMode, le, uint16(HeaterOff))
	bus.SetU16(Msp430Addr, RegReadTargetTemp, le, 2048)
	bus.SetU16(Msp430Addr, RegReadTargetSensor, le, uint16(TargetTH1))
	bus.SetU16(Msp430Addr, RegReadHeaterDuty, le, MaxPWMDuty)
	bus.SetU16(Msp430Addr, RegReadMaxTemp, le, 3893)

	for reg := i2c.Reg(0x01); reg <= 0x05; reg++ {
		bus.SetU16(Msp430Addr, reg, le, 2040+uint16(reg)*4)
	}
	sense := map[i2c.Reg]uint16{0x06: 1000, 0x07: 1900, 0x08: 3000}
	for reg, v := range sense {
		bus.SetU16(Msp430Addr, reg, le, v)
		bus.SetU16(Msp430Addr, reg+AvgOffset, le, v)
	}

	for ch := uint8(0); ch < 8; ch++ {
		bus.SetU16(adsAddr, Command(ch), be, 2048+uint16(ch)*8)
	}
	for _, addr := range []i2c.Addr{Max31725U4, Max31725U5, Max31725U6, Max31725U7} {
		if addr == adsAddr {
			continue
		}
		bus.SetU16(addr, Max31725RegTemp, be, 25<<8|uint16(addr)<<1)
	}

	mirror := map[i2c.Reg]i2c.Reg{
		RegWriteHeaterMode:   RegReadHeaterMode,
		RegWriteTargetTemp:   RegReadTargetTemp,
		RegWriteTargetSensor: RegReadTargetSensor,
		RegWriteHeaterDuty:   RegReadHeaterDuty,
		RegWriteMaxTemp:      RegReadMaxTemp,
	}
	bus.OnWrite = func(addr i2c.Addr, reg i2c.Reg, data []byte) {
		if addr != Msp430Addr {
			return
		}
		if r, ok := mirror[reg]; ok {
			bus.Set(addr, r, data)
		}
	}
	return bus
}
