package program

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/hestia/internal/calibration"
	"github.com/sweeney/hestia/internal/device"
)

// Format is a program file encoding.
type Format int

const (
	TOML Format = iota
	YAML
)

type fileEntry struct {
	ID         *int     `toml:"id" yaml:"id"`
	Name       string   `toml:"name" yaml:"name"`
	HeatBoard  boardRef `toml:"heat_board" yaml:"heat_board"`
	HeatTime   Duration `toml:"heat_time" yaml:"heat_time"`
	HeatDuty   *float64 `toml:"heat_duty" yaml:"heat_duty"`
	TempSensor string   `toml:"temp_sensor" yaml:"temp_sensor"`
	TempAbort  float64  `toml:"temp_abort" yaml:"temp_abort"`
	Thermostat *float64 `toml:"thermostat" yaml:"thermostat"`
	CoolTemp   float64  `toml:"cool_temp" yaml:"cool_temp"`
}

type file struct {
	Programs []fileEntry `toml:"programs" yaml:"programs"`
	Loop     bool        `toml:"loop" yaml:"loop"`
	RunLoop  bool        `toml:"run_loop" yaml:"run_loop"`
}

// Load reads and validates a program file. .yaml and .yml files are YAML,
// anything else is TOML.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program file: %w", err)
	}
	format := TOML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = YAML
	}
	set, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes, normalizes and validates program file contents.
func Parse(data []byte, format Format) (*Set, error) {
	var f file
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("parse toml: unknown keys %v", undec)
		}
	}

	set := normalize(f)
	if err := Validate(set); err != nil {
		return nil, err
	}
	return set, nil
}

func normalize(f file) *Set {
	set := &Set{Loop: f.Loop || f.RunLoop}
	for i, e := range f.Programs {
		p := &Program{
			ID:         i,
			Name:       e.Name,
			HeatBoard:  e.HeatBoard.ID,
			HeatTime:   e.HeatTime.Duration,
			HeatDuty:   1.0,
			TempSensor: strings.ToUpper(strings.TrimSpace(e.TempSensor)),
			TempAbort:  e.TempAbort,
			Thermostat: e.Thermostat,
			CoolTemp:   e.CoolTemp,
		}
		if e.ID != nil {
			p.ID = *e.ID
		}
		if e.HeatDuty != nil {
			p.HeatDuty = *e.HeatDuty
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("program %d", p.ID)
		}
		set.Programs = append(set.Programs, p)
	}
	return set
}

// Validate checks every program and returns all problems found.
func Validate(set *Set) error {
	if set == nil || len(set.Programs) == 0 {
		return errors.New("no programs defined")
	}
	var errs []error
	for _, p := range set.Programs {
		fail := func(format string, args ...any) {
			errs = append(errs, fmt.Errorf("%s: "+format, append([]any{p}, args...)...))
		}
		if p.HeatBoard == 0 {
			fail("heat_board is required")
		}
		if p.HeatTime <= 0 {
			fail("heat_time must be positive, got %s", p.HeatTime)
		}
		if p.HeatDuty < 0 || p.HeatDuty > 1 {
			fail("heat_duty must be within [0, 1], got %g", p.HeatDuty)
		}
		if _, err := device.ParseTargetSensor(p.TempSensor); err != nil {
			fail("temp_sensor: %v", err)
		}
		if t := p.Thermostat; t != nil && !(*t > calibration.MinSetpoint && *t < calibration.MaxSetpoint) {
			fail("thermostat %g°C outside (%g, %g)", *t, calibration.MinSetpoint, calibration.MaxSetpoint)
		}
	}
	return errors.Join(errs...)
}
