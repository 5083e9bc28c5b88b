// Package csvlog formats board readings as CSV rows compatible with the
// existing flight logs and appends them to daily files.
package csvlog

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/reading"
)

// TimestampFormat is the UTC column layout.
const TimestampFormat = "2006-01-02 15:04:05.000000"

var controlHeaders = []string{"heater_mode", "target_temp", "target_sensor", "heater_duty", "max_temp", "flags"}

// RawHeaders is the header row of raw code logs.
var RawHeaders = concat([]string{"UTC", "board"}, board.SensorIDs(), controlHeaders)

// DisplayHeaders is the header row of converted value logs. The heater sense
// channels are replaced by the derived heater quantities.
var DisplayHeaders = concat(
	[]string{"UTC", "board"},
	board.SensorIDs()[:board.Index("v_high")],
	[]string{"heater_voltage", "heater_curr", "heater_power"},
	controlHeaders,
)

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func float(v float64, err error) string {
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

func display[T fmt.Stringer](r reading.Result[T]) string {
	if r.Err != nil {
		return ""
	}
	return r.Display.String()
}

// hasRaw reports whether the register was read, even if its value did not
// convert.
func hasRaw(err error) bool {
	return err == nil || errors.Is(err, reading.ErrValueOutOfRange)
}

func raw[T any](r reading.Result[T]) string {
	if !hasRaw(r.Err) {
		return ""
	}
	return strconv.Itoa(int(r.Raw))
}

func prefix(ts time.Time, r *board.Reading) []string {
	return []string{ts.UTC().Format(TimestampFormat), strconv.Itoa(int(r.Board.BusID()))}
}

// FormatRaw returns a row of raw register codes matching RawHeaders.
func FormatRaw(ts time.Time, r *board.Reading) []string {
	row := prefix(ts, r)
	for _, s := range r.Sensors {
		row = append(row, raw(s))
	}
	return append(row,
		raw(r.HeaterMode),
		raw(r.TargetTemp),
		raw(r.TargetSensor),
		raw(r.HeaterDuty),
		raw(r.MaxTemp),
		raw(r.Flags),
	)
}

// FormatDisplay returns a row of converted values matching DisplayHeaders.
func FormatDisplay(ts time.Time, r *board.Reading) []string {
	row := prefix(ts, r)
	for _, s := range r.Sensors[:board.Index("v_high")] {
		row = append(row, float(s.Display, s.Err))
	}
	duty := ""
	if r.HeaterDuty.OK() {
		duty = strconv.Itoa(int(r.HeaterDuty.Display))
	}
	return append(row,
		float(r.HeaterVoltage()),
		float(r.HeaterCurrent()),
		float(r.HeaterPower()),
		display(r.HeaterMode),
		float(r.TargetTemp.Display, r.TargetTemp.Err),
		display(r.TargetSensor),
		duty,
		float(r.MaxTemp.Display, r.MaxTemp.Err),
		display(r.Flags),
	)
}
