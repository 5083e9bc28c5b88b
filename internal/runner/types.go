// Package runner executes a program set against the payload boards. The
// transition logic is pure apart from the heater writes made on entering a
// state; time, sleep and cancellation are injected.
package runner

import (
	"fmt"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/program"
)

// Board is the part of a board the runner drives.
type Board interface {
	ID() board.ID
	WriteHeaterMode(mode device.HeaterMode)
	WriteHeaterDuty(duty uint16)
	WriteTargetSensor(s device.TargetSensor)
	WriteTargetTemp(temp float64)
	TargetSensor() (board.Sensor, error)
	ReadTargetSensorTemp() (float64, error)
}

// StateKind names a controller state.
type StateKind string

const (
	Heating         StateKind = "HEATING"
	Cooling         StateKind = "COOLING"
	ProgramFinished StateKind = "PROGRAM_FINISHED"
	Done            StateKind = "DONE"
	Failed          StateKind = "FAILED"
)

// State is the controller state. Program is set for Heating and Cooling,
// Deadline for Heating and Message for Failed.
type State struct {
	Kind     StateKind
	Program  *program.Program
	Deadline time.Time
	Message  string
}

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s.Kind == Done || s.Kind == Failed
}

func (s State) String() string {
	switch s.Kind {
	case Heating:
		thermostat := "#empty"
		if s.Program.Thermostat != nil {
			thermostat = fmt.Sprintf("%.2f", *s.Program.Thermostat)
		}
		return fmt.Sprintf("Heating(end_time: %s, temp_abort: %.2f, thermostat: %s)",
			s.Deadline.Format("15:04:05.000"), s.Program.TempAbort, thermostat)
	case Cooling:
		return fmt.Sprintf("Cooling(%.2f)", s.Program.CoolTemp)
	case Failed:
		return fmt.Sprintf("Failed(%q)", s.Message)
	}
	return string(s.Kind)
}

// EventType distinguishes clock ticks from sensor readings.
type EventType string

const (
	EventTime        EventType = "TIME"
	EventTemperature EventType = "TEMPERATURE"
)

// Event is one input to the transition function.
type Event struct {
	Type   EventType
	Board  board.ID
	Sensor string
	Temp   float64
}

// Tick returns a Time event.
func Tick() Event {
	return Event{Type: EventTime}
}

// TemperatureReading returns a reading of sensor on b.
func TemperatureReading(b board.ID, sensor string, temp float64) Event {
	return Event{Type: EventTemperature, Board: b, Sensor: sensor, Temp: temp}
}

func (e Event) String() string {
	if e.Type == EventTemperature {
		return fmt.Sprintf("TemperatureReading(%s, %s, %.2f°C)", e.Board, e.Sensor, e.Temp)
	}
	return "Time"
}

// matches reports whether e is a reading of the sensor governing p.
func (e Event) matches(p *program.Program) bool {
	return e.Type == EventTemperature && e.Board == p.HeatBoard && e.Sensor == p.TempSensor
}

// Reason explains a transition.
type Reason string

const (
	ReasonStart     Reason = "START"
	ReasonHeatTime  Reason = "HEAT_TIME_ELAPSED"
	ReasonAbortTemp Reason = "ABORT_TEMP"
	ReasonCoolTemp  Reason = "COOL_TEMP"
	ReasonNext      Reason = "NEXT_PROGRAM"
	ReasonInvalid   Reason = "INVALID_EVENT"
)

// Transition is reported each time the controller changes state.
type Transition struct {
	Timestamp time.Time
	From      State
	To        State
	Reason    Reason
	// Temp is the reading that caused a temperature transition.
	Temp float64
}

// Counts tracks transitions since the controller started.
type Counts struct {
	Started  int
	Aborted  int
	TimedOut int
	Finished int
}
