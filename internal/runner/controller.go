package runner

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/program"
)

// DefaultCadence is the pause between events.
const DefaultCadence = time.Second

// Config holds the injectable parts of a Controller. Zero fields get real
// clock, real sleep and a private cancellation flag.
type Config struct {
	Cadence time.Duration
	Now     func() time.Time
	Sleep   func(time.Duration)
	// Cancel is sampled once per event, after the sleep.
	Cancel *atomic.Bool
	// OnTransition, if set, is called after every state change.
	OnTransition func(Transition)
}

func (c Config) withDefaults() Config {
	if c.Cadence <= 0 {
		c.Cadence = DefaultCadence
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	if c.Cancel == nil {
		c.Cancel = new(atomic.Bool)
	}
	return c
}

// Controller steps through a program list on a set of boards.
type Controller struct {
	cfg      Config
	boards   []Board
	byID     map[board.ID]Board
	programs []*program.Program
	cursor   int

	state  State
	counts Counts

	// heating and deadline survive re-entry of the same program.
	heating  *program.Program
	deadline time.Time
}

// NewController checks that every program's board is managed.
func NewController(boards []Board, programs []*program.Program, cfg Config) (*Controller, error) {
	if len(programs) == 0 {
		return nil, errors.New("no programs to run")
	}
	c := &Controller{
		cfg:      cfg.withDefaults(),
		boards:   boards,
		byID:     make(map[board.ID]Board, len(boards)),
		programs: programs,
	}
	for _, b := range boards {
		c.byID[b.ID()] = b
	}
	for _, p := range programs {
		if _, ok := c.byID[p.HeatBoard]; !ok {
			return nil, fmt.Errorf("%s: %s board is not available", p, p.HeatBoard)
		}
	}
	return c, nil
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Counts returns the transition counters.
func (c *Controller) Counts() Counts {
	return c.counts
}

// Cancelled reports whether the cancellation flag is set.
func (c *Controller) Cancelled() bool {
	return c.cfg.Cancel.Load()
}

// Start enters Heating for the first program.
func (c *Controller) Start() State {
	c.cursor = 0
	next := c.EnterHeating(c.programs[0])
	c.transition(next, ReasonStart, 0)
	return c.state
}

// EnterHeating programs the heater for p and returns the Heating state.
// Entering the same program again repeats the writes but keeps the deadline.
func (c *Controller) EnterHeating(p *program.Program) State {
	log.Printf("runner: starting heat for %s", p)
	b := c.byID[p.HeatBoard]
	if c.heating != p {
		c.heating = p
		c.deadline = c.cfg.Now().Add(p.HeatTime)
		c.counts.Started++
	}
	b.WriteHeaterDuty(p.Duty())
	b.WriteTargetSensor(p.Target())
	if p.Thermostat != nil {
		b.WriteTargetTemp(*p.Thermostat)
		b.WriteHeaterMode(device.HeaterPID)
	} else {
		b.WriteHeaterMode(device.HeaterPWM)
	}
	return State{Kind: Heating, Program: p, Deadline: c.deadline}
}

// EnterCooling switches the heater off and returns the Cooling state.
func (c *Controller) EnterCooling(p *program.Program) State {
	log.Printf("runner: starting cool for %s", p)
	c.byID[p.HeatBoard].WriteHeaterMode(device.HeaterOff)
	c.heating = nil
	return State{Kind: Cooling, Program: p}
}

func (c *Controller) nextProgramOrDone() State {
	c.cursor++
	if c.cursor < len(c.programs) {
		return c.EnterHeating(c.programs[c.cursor])
	}
	return State{Kind: Done}
}

// Next applies one event and returns the resulting state.
func (c *Controller) Next(ev Event) State {
	s := c.state
	switch s.Kind {
	case Heating:
		p := s.Program
		if !c.cfg.Now().Before(s.Deadline) {
			log.Printf("runner: heating time completed: %s", p)
			c.counts.TimedOut++
			c.transition(c.EnterCooling(p), ReasonHeatTime, 0)
		} else if ev.matches(p) && ev.Temp > p.TempAbort {
			log.Printf("runner: abort temp reached (%.2f > %.2f): %s", ev.Temp, p.TempAbort, p)
			c.counts.Aborted++
			c.transition(c.EnterCooling(p), ReasonAbortTemp, ev.Temp)
		}

	case Cooling:
		p := s.Program
		if ev.matches(p) && ev.Temp <= p.CoolTemp {
			log.Printf("runner: cool temp reached (%.2f <= %.2f): %s", ev.Temp, p.CoolTemp, p)
			c.counts.Finished++
			c.transition(State{Kind: ProgramFinished}, ReasonCoolTemp, ev.Temp)
		}

	case ProgramFinished:
		c.transition(c.nextProgramOrDone(), ReasonNext, 0)

	case Done, Failed:
		// absorbing

	default:
		c.transition(State{
			Kind:    Failed,
			Message: fmt.Sprintf("invalid event %s for state %s", ev, s),
		}, ReasonInvalid, 0)
	}
	return c.state
}

func (c *Controller) transition(to State, reason Reason, temp float64) {
	from := c.state
	c.state = to
	if c.cfg.OnTransition != nil {
		c.cfg.OnTransition(Transition{
			Timestamp: c.cfg.Now(),
			From:      from,
			To:        to,
			Reason:    reason,
			Temp:      temp,
		})
	}
}

// Close switches every managed heater off.
func (c *Controller) Close() {
	log.Printf("runner: disabling payload heaters")
	for _, b := range c.boards {
		b.WriteHeaterMode(device.HeaterOff)
	}
}
