package board

import (
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/i2c"
	"github.com/sweeney/hestia/internal/reading"
)

// Reading is one snapshot of a board. Sensors is in catalog order.
type Reading struct {
	Board   ID
	Version Version
	Catalog []Sensor
	Sensors []reading.Result[float64]

	HeaterMode   reading.Result[device.HeaterMode]
	TargetTemp   reading.Result[float64]
	TargetSensor reading.Result[device.TargetSensor]
	HeaterDuty   reading.Result[uint16]
	MaxTemp      reading.Result[float64]
	Flags        reading.Result[device.Flags]
}

// Sensor returns the result for a named catalog sensor.
func (r *Reading) Sensor(id string) (reading.Result[float64], bool) {
	for i, s := range r.Catalog {
		if s.ID == id {
			return r.Sensors[i], true
		}
	}
	return reading.Result[float64]{}, false
}

// Board is a single Hestia board on its own I2C bus.
type Board struct {
	id      ID
	version Version
	bus     i2c.Bus
	catalog []Sensor

	msp      *device.Msp430
	ads      *device.Ads7828
	discrete map[i2c.Addr]*device.Max31725
}

// New binds a board identity and revision to bus.
func New(id ID, version Version, bus i2c.Bus) *Board {
	b := &Board{
		id:       id,
		version:  version,
		bus:      bus,
		catalog:  Catalog(version),
		msp:      device.NewMsp430(bus),
		ads:      device.NewAds7828(bus, version.AdsAddr()),
		discrete: make(map[i2c.Addr]*device.Max31725),
	}
	for _, s := range b.catalog {
		if s.Kind == Max31725Temp {
			b.discrete[i2c.Addr(s.Loc)] = device.NewMax31725(bus, i2c.Addr(s.Loc))
		}
	}
	return b
}

// ID returns the board identity.
func (b *Board) ID() ID { return b.id }

// Version returns the hardware revision.
func (b *Board) Version() Version { return b.version }

// Catalog returns the board's sensors in export order.
func (b *Board) Catalog() []Sensor { return b.catalog }

// Heater returns the heater microcontroller driver.
func (b *Board) Heater() *device.Msp430 { return b.msp }

func (b *Board) String() string {
	return fmt.Sprintf("%s board (%s, %s)", b.id, i2c.Path(b.id.BusID()), b.version)
}

// Exists reports whether the board's bus is present.
func (b *Board) Exists() bool {
	return b.bus.Exists()
}

// ReadSensor reads one catalog sensor through its driver.
func (b *Board) ReadSensor(s Sensor) reading.Result[float64] {
	switch s.Kind {
	case Disabled:
		return reading.Fail[float64](fmt.Errorf("%s: %w", s.ID, reading.ErrDisabled))
	case Msp430Temp:
		return reading.Of(b.msp.ReadTemp(i2c.Reg(s.Loc), s.ID))
	case Msp430Voltage:
		return reading.Of(b.msp.ReadVoltage(i2c.Reg(s.Loc), s.ID))
	case Msp430Current:
		return reading.Of(b.msp.ReadCurrentSense(i2c.Reg(s.Loc), s.ID))
	case Ads7828Temp:
		return reading.Of(b.ads.ReadTemp(s.Loc, s.ID))
	case Max31725Temp:
		return reading.Of(b.discrete[i2c.Addr(s.Loc)].ReadTemp(s.ID))
	}
	return reading.Fail[float64](fmt.Errorf("%s: unknown sensor kind %d", s.ID, s.Kind))
}

// Read takes a fresh snapshot of every sensor and heater register. It returns
// nil if the bus is absent or every sensor read failed.
func (b *Board) Read() *Reading {
	if !b.bus.Exists() {
		return nil
	}

	r := &Reading{
		Board:   b.id,
		Version: b.version,
		Catalog: b.catalog,
		Sensors: make([]reading.Result[float64], len(b.catalog)),
	}
	failed := 0
	for i, s := range b.catalog {
		r.Sensors[i] = b.ReadSensor(s)
		if !r.Sensors[i].OK() {
			failed++
		}
	}
	if failed == len(b.catalog) {
		log.Printf("%s: no sensor responded, treating board as absent", b)
		return nil
	}

	r.HeaterMode = reading.Of(b.msp.ReadHeaterMode())
	r.TargetTemp = reading.Of(b.msp.ReadTargetTemp())
	r.TargetSensor = reading.Of(b.msp.ReadTargetSensor())
	r.HeaterDuty = reading.Of(b.msp.ReadHeaterDuty())
	r.MaxTemp = reading.Of(b.msp.ReadMaxTemp())
	r.Flags = reading.Of(b.msp.ReadFlags())
	return r
}

// WriteHeaterMode sets the heater mode. Failures are logged by the driver.
func (b *Board) WriteHeaterMode(mode device.HeaterMode) {
	_ = b.msp.WriteHeaterMode(mode)
}

// SwitchHeater sets mode on target. Any mode other than off first switches
// off every other board, so at most one heater runs.
func SwitchHeater(boards []*Board, target *Board, mode device.HeaterMode) {
	if mode != device.HeaterOff {
		for _, other := range boards {
			if other != target {
				other.WriteHeaterMode(device.HeaterOff)
			}
		}
	}
	target.WriteHeaterMode(mode)
}

// WriteHeaterDuty sets the PWM duty (0-255).
func (b *Board) WriteHeaterDuty(duty uint16) {
	_ = b.msp.WriteHeaterDuty(duty)
}

// WriteTargetSensor selects the heater's control sensor.
func (b *Board) WriteTargetSensor(s device.TargetSensor) {
	_ = b.msp.WriteTargetSensor(s)
}

// WriteTargetTemp sets the thermostat setpoint in °C.
func (b *Board) WriteTargetTemp(temp float64) {
	if err := b.msp.WriteTargetTemp(temp); errors.Is(err, reading.ErrValueOutOfRange) {
		log.Printf("%s: not writing target temp: %v", b, err)
	}
}

// WriteMaxTemp sets the over-temperature cut-out in °C.
func (b *Board) WriteMaxTemp(temp float64) {
	if err := b.msp.WriteMaxTemp(temp); errors.Is(err, reading.ErrValueOutOfRange) {
		log.Printf("%s: not writing max temp: %v", b, err)
	}
}

// TargetSensor returns the catalog entry of the heater's control sensor.
func (b *Board) TargetSensor() (Sensor, error) {
	v, err := b.msp.ReadTargetSensor()
	if err != nil {
		return Sensor{}, err
	}
	name := v.Display.String()
	for _, s := range b.catalog {
		if s.ID == name {
			return s, nil
		}
	}
	return Sensor{}, fmt.Errorf("target sensor %s not in catalog", name)
}

// ReadTargetSensorTemp reads the heater's control sensor.
func (b *Board) ReadTargetSensorTemp() (float64, error) {
	s, err := b.TargetSensor()
	if err != nil {
		return 0, err
	}
	r := b.ReadSensor(s)
	return r.Display, r.Err
}
