// Package program loads the declarative heat/cool program list executed by
// the runner.
package program

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/device"
)

// Program is one heat step followed by one cool step on a single board.
type Program struct {
	ID         int
	Name       string
	HeatBoard  board.ID
	HeatTime   time.Duration
	HeatDuty   float64
	TempSensor string
	TempAbort  float64
	// Thermostat, when set, regulates in PID mode at this setpoint instead of
	// driving a fixed duty.
	Thermostat *float64
	CoolTemp   float64
}

func (p *Program) String() string {
	return fmt.Sprintf("Program { id: %d, name: %q }", p.ID, p.Name)
}

// Duty returns HeatDuty on the 0-255 PWM scale.
func (p *Program) Duty() uint16 {
	return uint16(math.Round(p.HeatDuty * float64(device.MaxPWMDuty)))
}

// Target returns the heater control sensor.
func (p *Program) Target() device.TargetSensor {
	s, _ := device.ParseTargetSensor(p.TempSensor)
	return s
}

// Mode returns the heater mode used while heating.
func (p *Program) Mode() device.HeaterMode {
	if p.Thermostat != nil {
		return device.HeaterPID
	}
	return device.HeaterPWM
}

// Set is the ordered program list and whether to repeat it.
type Set struct {
	Programs []*Program
	Loop     bool
}

// Duration is a time.Duration read from a string such as "5m" or "1h30m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// boardRef accepts a board written either as a name or as a bus number.
type boardRef struct {
	board.ID
}

// UnmarshalTOML implements toml.Unmarshaler.
func (b *boardRef) UnmarshalTOML(v interface{}) error {
	switch t := v.(type) {
	case string:
		return b.ID.UnmarshalText([]byte(t))
	case int64:
		return b.ID.UnmarshalText([]byte(strconv.FormatInt(t, 10)))
	}
	return fmt.Errorf("invalid board %v", v)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *boardRef) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: board must be a name or number", n.Line)
	}
	return b.ID.UnmarshalText([]byte(n.Value))
}
