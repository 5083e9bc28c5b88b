package board

import (
	"math"

	"github.com/sweeney/hestia/internal/reading"
)

const (
	// shuntOhms is the v2.2 current sense resistor.
	shuntOhms = 0.05
	// senseRail is the level above which the v2.2 shunt reading saturates.
	senseRail = 3.0
)

// HeaterVoltage is the voltage across the heater. v1.1 has no sense circuit.
func HeaterVoltage(v Version, vHigh, vLow float64) float64 {
	if v == V1_1 {
		return 0
	}
	return math.Max(vHigh-vLow, 0)
}

// HeaterCurrent is the heater current in amps. v2.0 senses it directly; v2.2
// derives it from the drop across the shunt, which is only meaningful while
// both sense lines are below the rail.
func HeaterCurrent(v Version, vLow, vCurr float64) float64 {
	switch v {
	case V2_0:
		return vCurr
	case V2_2:
		if vCurr < senseRail && vLow < senseRail {
			return math.Max(vLow-vCurr, 0) / shuntOhms
		}
	}
	return 0
}

// HeaterPower is HeaterVoltage × HeaterCurrent.
func HeaterPower(v Version, vHigh, vLow, vCurr float64) float64 {
	return HeaterVoltage(v, vHigh, vLow) * HeaterCurrent(v, vLow, vCurr)
}

func (r *Reading) avg(id string) (float64, error) {
	res, ok := r.Sensor(id)
	if !ok {
		return 0, reading.ErrDisabled
	}
	return res.Display, res.Err
}

// HeaterVoltage computes the heater voltage from the averaged sense channels.
func (r *Reading) HeaterVoltage() (float64, error) {
	vHigh, err := r.avg("v_high_avg")
	if err != nil {
		return 0, err
	}
	vLow, err := r.avg("v_low_avg")
	if err != nil {
		return 0, err
	}
	return HeaterVoltage(r.Version, vHigh, vLow), nil
}

// HeaterCurrent computes the heater current from the averaged sense channels.
func (r *Reading) HeaterCurrent() (float64, error) {
	vLow, err := r.avg("v_low_avg")
	if err != nil {
		return 0, err
	}
	vCurr, err := r.avg("v_curr_avg")
	if err != nil {
		return 0, err
	}
	return HeaterCurrent(r.Version, vLow, vCurr), nil
}

// HeaterPower computes the heater power from the averaged sense channels.
func (r *Reading) HeaterPower() (float64, error) {
	v, err := r.HeaterVoltage()
	if err != nil {
		return 0, err
	}
	i, err := r.HeaterCurrent()
	if err != nil {
		return 0, err
	}
	return v * i, nil
}
