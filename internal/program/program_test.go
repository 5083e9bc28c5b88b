package program

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/device"
)

const sampleTOML = `
loop = true

[[programs]]
name = "Warm top"
heat_board = "top"
heat_time = "5m"
temp_sensor = "TH1"
temp_abort = 80.0
cool_temp = 40.0

[[programs]]
id = 7
name = "Hold bottom"
heat_board = 2
heat_time = "1h30m"
heat_duty = 0.5
temp_sensor = "j7"
temp_abort = 100.0
thermostat = 80.0
cool_temp = 30.0
`

const sampleYAML = `
run_loop: true
programs:
  - name: Warm top
    heat_board: Top
    heat_time: 5m
    temp_sensor: TH1
    temp_abort: 80
    cool_temp: 40
  - id: 7
    name: Hold bottom
    heat_board: 2
    heat_time: 1h30m
    heat_duty: 0.5
    temp_sensor: J7
    temp_abort: 100
    thermostat: 80
    cool_temp: 30
`

func checkSample(t *testing.T, set *Set) {
	t.Helper()
	require.Len(t, set.Programs, 2)
	assert.True(t, set.Loop)

	p := set.Programs[0]
	assert.Equal(t, 0, p.ID)
	assert.Equal(t, "Warm top", p.Name)
	assert.Equal(t, board.Top, p.HeatBoard)
	assert.Equal(t, 5*time.Minute, p.HeatTime)
	assert.Equal(t, 1.0, p.HeatDuty)
	assert.Equal(t, uint16(255), p.Duty())
	assert.Equal(t, device.TargetTH1, p.Target())
	assert.Nil(t, p.Thermostat)
	assert.Equal(t, device.HeaterPWM, p.Mode())

	p = set.Programs[1]
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, board.Bottom, p.HeatBoard)
	assert.Equal(t, 90*time.Minute, p.HeatTime)
	assert.Equal(t, uint16(128), p.Duty())
	assert.Equal(t, "J7", p.TempSensor)
	assert.Equal(t, device.TargetJ7, p.Target())
	require.NotNil(t, p.Thermostat)
	assert.Equal(t, 80.0, *p.Thermostat)
	assert.Equal(t, device.HeaterPID, p.Mode())
	assert.Equal(t, 30.0, p.CoolTemp)
}

func TestParseTOML(t *testing.T) {
	set, err := Parse([]byte(sampleTOML), TOML)
	require.NoError(t, err)
	checkSample(t, set)
}

func TestParseYAML(t *testing.T) {
	set, err := Parse([]byte(sampleYAML), YAML)
	require.NoError(t, err)
	checkSample(t, set)
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "uts-programs.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(sampleTOML), 0o644))
	set, err := Load(tomlPath)
	require.NoError(t, err)
	checkSample(t, set)

	yamlPath := filepath.Join(dir, "uts-programs.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o644))
	set, err = Load(yamlPath)
	require.NoError(t, err)
	checkSample(t, set)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoopDefaultsOff(t *testing.T) {
	set, err := Parse([]byte(`
[[programs]]
heat_board = "bottom"
heat_time = "10s"
temp_sensor = "TH2"
temp_abort = 60.0
cool_temp = 30.0
`), TOML)
	require.NoError(t, err)
	assert.False(t, set.Loop)
	assert.Equal(t, "program 0", set.Programs[0].Name)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
[[programs]]
heat_board = "top"
heat_time = "10s"
temp_sensor = "TH1"
temp_abort = 60.0
cool_temp = 30.0
cool_time = "5m"
`), TOML)
	assert.Error(t, err)
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"board":    "[[programs]]\nheat_board = \"middle\"\nheat_time = \"1s\"\ntemp_sensor = \"TH1\"\n",
		"duration": "[[programs]]\nheat_board = \"top\"\nheat_time = \"soon\"\ntemp_sensor = \"TH1\"\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc), TOML)
		assert.Error(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	hot := 160.0
	valid := func() *Program {
		return &Program{
			Name: "p", HeatBoard: board.Top, HeatTime: time.Second, HeatDuty: 1,
			TempSensor: "TH1", TempAbort: 80, CoolTemp: 40,
		}
	}

	require.NoError(t, Validate(&Set{Programs: []*Program{valid()}}))
	assert.Error(t, Validate(&Set{}))

	cases := map[string]func(p *Program){
		"duty high":     func(p *Program) { p.HeatDuty = 1.5 },
		"duty negative": func(p *Program) { p.HeatDuty = -0.1 },
		"sensor":        func(p *Program) { p.TempSensor = "U4" },
		"thermostat":    func(p *Program) { p.Thermostat = &hot },
		"heat time":     func(p *Program) { p.HeatTime = 0 },
		"board":         func(p *Program) { p.HeatBoard = 0 },
	}
	for name, mutate := range cases {
		p := valid()
		mutate(p)
		assert.Error(t, Validate(&Set{Programs: []*Program{p}}), name)
	}
}

func TestProgramString(t *testing.T) {
	p := &Program{ID: 3, Name: "Soak"}
	assert.Equal(t, `Program { id: 3, name: "Soak" }`, p.String())
}
