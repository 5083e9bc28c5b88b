// Package status provides a thread-safe tracker of the latest board readings
// and program state. It is read by the HTTP handlers and by MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/runner"
)

// Config contains daemon configuration for display.
type Config struct {
	Boards   []string
	Version  string
	Interval time.Duration
	LogPath  string
	Broker   string
	HTTPAddr string
}

// BoardState is the latest reading of one board. Reading is nil while the
// board is absent.
type BoardState struct {
	ID      board.ID
	Reading *board.Reading
	ReadAt  time.Time
}

// ProgramState describes the program runner as of its last transition.
type ProgramState struct {
	Active    bool
	State     runner.StateKind
	ProgramID int
	Program   string
	Board     board.ID
	Deadline  time.Time
	Message   string
	Reason    runner.Reason
	Since     time.Time
	Counts    runner.Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Boards        []BoardState
	Program       ProgramState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Board returns the state of one board.
func (s Snapshot) Board(id board.ID) (BoardState, bool) {
	for _, b := range s.Boards {
		if b.ID == id {
			return b, true
		}
	}
	return BoardState{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// UpdateBoard stores the latest reading of a board. r may be nil.
func (t *Tracker) UpdateBoard(id board.ID, r *board.Reading, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bs := BoardState{ID: id, Reading: r, ReadAt: at}
	for i := range t.snap.Boards {
		if t.snap.Boards[i].ID == id {
			t.snap.Boards[i] = bs
			return
		}
	}
	t.snap.Boards = append(t.snap.Boards, bs)
}

// ObserveTransition records a runner state change. It has the signature of
// runner.Config.OnTransition.
func (t *Tracker) ObserveTransition(tr runner.Transition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := &t.snap.Program
	switch tr.Reason {
	case runner.ReasonStart:
		p.Counts.Started++
	case runner.ReasonNext:
		if tr.To.Kind == runner.Heating {
			p.Counts.Started++
		}
	case runner.ReasonAbortTemp:
		p.Counts.Aborted++
	case runner.ReasonHeatTime:
		p.Counts.TimedOut++
	case runner.ReasonCoolTemp:
		p.Counts.Finished++
	}

	p.Active = !tr.To.Terminal()
	p.State = tr.To.Kind
	p.Reason = tr.Reason
	p.Since = tr.Timestamp
	p.Message = tr.To.Message
	p.Deadline = tr.To.Deadline
	if prog := tr.To.Program; prog != nil {
		p.ProgramID = prog.ID
		p.Program = prog.Name
		p.Board = prog.HeatBoard
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Boards = append([]BoardState(nil), t.snap.Boards...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
