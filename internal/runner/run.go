package runner

import (
	"log"

	"github.com/sweeney/hestia/internal/program"
)

// Run starts the first program and feeds events until the controller reaches
// a terminal state, the source is exhausted or cancellation is observed.
// Every heater is switched off on return, including when a board call panics.
func (c *Controller) Run(events Source) State {
	defer c.Close()

	state := c.Start()
	for !state.Terminal() {
		ev, ok := events.Next()
		if !ok {
			log.Printf("runner: event source exhausted in %s", state)
			break
		}
		state = c.Next(ev)
		c.cfg.Sleep(c.cfg.Cadence)
		if c.Cancelled() {
			log.Printf("runner: cancelled in %s", state)
			break
		}
	}
	return state
}

// RunPrograms executes set on boards with live events. With set.Loop the
// whole set is restarted after finishing, until cancelled or failed.
func RunPrograms(set *program.Set, boards []Board, cfg Config) (State, error) {
	cfg = cfg.withDefaults()
	for {
		ctrl, err := NewController(boards, set.Programs, cfg)
		if err != nil {
			return State{}, err
		}
		final := ctrl.Run(NewPayloadEvents(boards))
		log.Printf("runner: finished in %s (%+v)", final, ctrl.Counts())
		if !set.Loop || ctrl.Cancelled() || final.Kind == Failed {
			return final, nil
		}
	}
}
