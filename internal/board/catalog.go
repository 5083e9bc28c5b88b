package board

import (
	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/i2c"
)

// Kind selects the driver and conversion used to read a Sensor.
type Kind uint8

const (
	// Disabled sensors are not fitted on this revision and never touch the bus.
	Disabled Kind = iota
	Msp430Temp
	Msp430Voltage
	Msp430Current
	Ads7828Temp
	Max31725Temp
)

func (k Kind) String() string {
	switch k {
	case Disabled:
		return "disabled"
	case Msp430Temp:
		return "msp430"
	case Msp430Voltage:
		return "msp430-voltage"
	case Msp430Current:
		return "msp430-current"
	case Ads7828Temp:
		return "ads7828"
	case Max31725Temp:
		return "max31725"
	}
	return "unknown"
}

// Sensor is one catalog entry. Loc is a register for the MSP430 kinds, an
// ADC channel for Ads7828Temp and a bus address for Max31725Temp.
type Sensor struct {
	ID    string
	Kind  Kind
	Loc   uint8
	Label string
	X, Y  float64
}

// IsTemp reports whether the sensor measures temperature.
func (s Sensor) IsTemp() bool {
	switch s.Kind {
	case Msp430Temp, Ads7828Temp, Max31725Temp:
		return true
	}
	return false
}

func sensor(id string, kind Kind, loc uint8, label string, x, y float64) Sensor {
	return Sensor{ID: id, Kind: kind, Loc: loc, Label: label, X: x, Y: y}
}

func mounted(id string, kind Kind, loc uint8) Sensor {
	return Sensor{ID: id, Kind: kind, Loc: loc, Label: "Mounted"}
}

func circuit(id string, kind Kind, reg i2c.Reg) Sensor {
	return Sensor{ID: id, Kind: kind, Loc: uint8(reg), Label: "Circuit"}
}

var baseCatalog = [...]Sensor{
	sensor("TH1", Msp430Temp, 0x01, "Centre", -42.0135, 43.18),
	sensor("TH2", Msp430Temp, 0x02, "Top-left of heater", -35.7124, 54.61),
	sensor("TH3", Msp430Temp, 0x03, "Bottom-right of heater", -53.88, 33.496),

	sensor("U4", Max31725Temp, uint8(device.Max31725U4), "Top-left", -15.976, 75.225),
	sensor("U5", Max31725Temp, uint8(device.Max31725U5), "Top-right", 81.788, 75.692),
	sensor("U6", Max31725Temp, uint8(device.Max31725U6), "Bottom-right", -82.296, 12.8535),
	sensor("U7", Max31725Temp, uint8(device.Max31725U7), "Centre", 46.228, 47.752),

	sensor("TH4", Ads7828Temp, 0, "Centre", -45.8705, 43.18),
	sensor("TH5", Ads7828Temp, 1, "Top-right", -77.9814, 75.0769),
	sensor("TH6", Ads7828Temp, 2, "Bottom-left of heater", 33.274, 30.226),

	mounted("J7", Msp430Temp, 0x04),
	mounted("J8", Msp430Temp, 0x05),

	mounted("J12", Ads7828Temp, 3),
	mounted("J13", Ads7828Temp, 4),
	mounted("J14", Ads7828Temp, 5),
	mounted("J15", Ads7828Temp, 6),
	mounted("J16", Ads7828Temp, 7),

	circuit("v_high", Msp430Voltage, 0x08),
	circuit("v_low", Msp430Voltage, 0x06),
	circuit("v_curr", Msp430Current, 0x07),
	circuit("v_high_avg", Msp430Voltage, 0x08+device.AvgOffset),
	circuit("v_low_avg", Msp430Voltage, 0x06+device.AvgOffset),
	circuit("v_curr_avg", Msp430Current, 0x07+device.AvgOffset),
}

// CatalogSize is the number of sensors on every revision.
const CatalogSize = len(baseCatalog)

// Catalog returns the sensor table for a revision, in export order.
func Catalog(v Version) []Sensor {
	out := make([]Sensor, CatalogSize)
	copy(out, baseCatalog[:])
	if v == V1_1 {
		// U4 shares 0x48 with the v1.1 multiplexing ADC and is not fitted.
		for i := range out {
			if out[i].ID == "U4" {
				out[i].Kind = Disabled
			}
		}
	}
	return out
}

// SensorIDs returns the catalog sensor names in export order.
func SensorIDs() []string {
	ids := make([]string, CatalogSize)
	for i, s := range baseCatalog {
		ids[i] = s.ID
	}
	return ids
}

// Index returns the catalog position of a sensor name, or -1.
func Index(id string) int {
	for i, s := range baseCatalog {
		if s.ID == id {
			return i
		}
	}
	return -1
}
