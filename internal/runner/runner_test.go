package runner

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/program"
)

type call struct {
	Op    string
	Value any
}

type fakeBoard struct {
	id     board.ID
	calls  []call
	target string
	temp   float64
	err    error
}

func newFakeBoard(id board.ID) *fakeBoard {
	return &fakeBoard{id: id, target: "TH1", temp: 25}
}

func (f *fakeBoard) ID() board.ID { return f.id }

func (f *fakeBoard) WriteHeaterMode(m device.HeaterMode) {
	f.calls = append(f.calls, call{"mode", m})
}

func (f *fakeBoard) WriteHeaterDuty(d uint16) {
	f.calls = append(f.calls, call{"duty", d})
}

func (f *fakeBoard) WriteTargetSensor(s device.TargetSensor) {
	f.calls = append(f.calls, call{"sensor", s})
}

func (f *fakeBoard) WriteTargetTemp(t float64) {
	f.calls = append(f.calls, call{"temp", t})
}

func (f *fakeBoard) TargetSensor() (board.Sensor, error) {
	if f.err != nil {
		return board.Sensor{}, f.err
	}
	return board.Sensor{ID: f.target}, nil
}

func (f *fakeBoard) ReadTargetSensorTemp() (float64, error) {
	return f.temp, f.err
}

func (f *fakeBoard) lastCall() call {
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

type fakeClock struct {
	now    time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.sleeps++
}

type fixedEvents []Event

func (f *fixedEvents) Next() (Event, bool) {
	if len(*f) == 0 {
		return Event{}, false
	}
	ev := (*f)[0]
	*f = (*f)[1:]
	return ev, true
}

func events(evs ...Event) *fixedEvents {
	f := fixedEvents(evs)
	return &f
}

func ptr(v float64) *float64 { return &v }

func scenarioPrograms() []*program.Program {
	return []*program.Program{
		{
			ID: 0, Name: "Top", HeatBoard: board.Top, HeatTime: 5 * time.Millisecond,
			HeatDuty: 1.0, TempSensor: "TH1", TempAbort: 80, CoolTemp: 40,
		},
		{
			ID: 1, Name: "Bottom", HeatBoard: board.Bottom, HeatTime: 3 * time.Millisecond,
			HeatDuty: 1.0, TempSensor: "J7", TempAbort: 100, Thermostat: ptr(80), CoolTemp: 30,
		},
	}
}

func scenarioEvents() *fixedEvents {
	top := func(t float64) Event { return TemperatureReading(board.Top, "TH1", t) }
	bottom := func(t float64) Event { return TemperatureReading(board.Bottom, "J7", t) }
	return events(
		Tick(), top(55), top(105), Tick(), Tick(), top(60), bottom(80), Tick(),
		top(35), bottom(120), bottom(100), Tick(), Tick(), top(120), bottom(90),
		Tick(), Tick(), top(60), bottom(60), Tick(), Tick(), Tick(), bottom(30), Tick(),
	)
}

func newTestController(t *testing.T, programs []*program.Program, cfg Config) (*Controller, *fakeBoard, *fakeBoard, *fakeClock) {
	t.Helper()
	top, bottom := newFakeBoard(board.Top), newFakeBoard(board.Bottom)
	clock := newFakeClock()
	cfg.Now = clock.Now
	cfg.Sleep = clock.Sleep
	if cfg.Cadence == 0 {
		cfg.Cadence = time.Millisecond
	}
	c, err := NewController([]Board{top, bottom}, programs, cfg)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, top, bottom, clock
}

func TestScenarioReachesDone(t *testing.T) {
	var kinds []StateKind
	cfg := Config{OnTransition: func(tr Transition) { kinds = append(kinds, tr.To.Kind) }}
	c, _, _, clock := newTestController(t, scenarioPrograms(), cfg)

	final := c.Run(scenarioEvents())
	if final.Kind != Done {
		t.Fatalf("final state: got %s, want %s", final, Done)
	}

	want := []StateKind{Heating, Cooling, ProgramFinished, Heating, Cooling, ProgramFinished, Done}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("transitions: got %v, want %v", kinds, want)
	}
	if clock.sleeps != 24 {
		t.Errorf("sleeps: got %d, want 24", clock.sleeps)
	}

	counts := c.Counts()
	if counts.Started != 2 || counts.Aborted != 1 || counts.TimedOut != 1 || counts.Finished != 2 {
		t.Errorf("counts: got %+v", counts)
	}
}

func TestScenarioHeaterWrites(t *testing.T) {
	c, top, bottom, _ := newTestController(t, scenarioPrograms(), Config{})
	c.Run(scenarioEvents())

	wantTop := []call{
		{"duty", uint16(255)},
		{"sensor", device.TargetTH1},
		{"mode", device.HeaterPWM},
		{"mode", device.HeaterOff},
		{"mode", device.HeaterOff},
	}
	wantBottom := []call{
		{"duty", uint16(255)},
		{"sensor", device.TargetJ7},
		{"temp", 80.0},
		{"mode", device.HeaterPID},
		{"mode", device.HeaterOff},
		{"mode", device.HeaterOff},
	}
	if fmt.Sprint(top.calls) != fmt.Sprint(wantTop) {
		t.Errorf("top writes: got %v, want %v", top.calls, wantTop)
	}
	if fmt.Sprint(bottom.calls) != fmt.Sprint(wantBottom) {
		t.Errorf("bottom writes: got %v, want %v", bottom.calls, wantBottom)
	}
}

func TestHeatingDutyRounds(t *testing.T) {
	progs := scenarioPrograms()
	progs[0].HeatDuty = 0.5
	c, top, _, _ := newTestController(t, progs, Config{})
	c.Start()

	if got := top.calls[0]; got.Op != "duty" || got.Value != uint16(128) {
		t.Errorf("first write: got %v, want duty 128", got)
	}
}

func TestHeatTimeElapsed(t *testing.T) {
	c, top, _, clock := newTestController(t, scenarioPrograms(), Config{})
	c.Start()

	clock.now = clock.now.Add(4 * time.Millisecond)
	if s := c.Next(Tick()); s.Kind != Heating {
		t.Fatalf("before deadline: got %s, want %s", s, Heating)
	}
	clock.now = clock.now.Add(time.Millisecond)
	// The deadline check applies to any event, not only Time.
	if s := c.Next(TemperatureReading(board.Bottom, "J7", 20)); s.Kind != Cooling {
		t.Fatalf("at deadline: got %s, want %s", s, Cooling)
	}
	if got := top.lastCall(); got.Value != device.HeaterOff {
		t.Errorf("last write: got %v, want mode OFF", got)
	}
}

func TestAbortTempIsStrict(t *testing.T) {
	c, _, _, _ := newTestController(t, scenarioPrograms(), Config{})
	c.Start()

	if s := c.Next(TemperatureReading(board.Top, "TH1", 80)); s.Kind != Heating {
		t.Errorf("at abort temp: got %s, want %s", s, Heating)
	}
	if s := c.Next(TemperatureReading(board.Top, "TH2", 150)); s.Kind != Heating {
		t.Errorf("other sensor: got %s, want %s", s, Heating)
	}
	if s := c.Next(TemperatureReading(board.Bottom, "TH1", 150)); s.Kind != Heating {
		t.Errorf("other board: got %s, want %s", s, Heating)
	}
	if s := c.Next(TemperatureReading(board.Top, "TH1", 80.01)); s.Kind != Cooling {
		t.Errorf("above abort temp: got %s, want %s", s, Cooling)
	}
}

func TestCoolTempIsInclusive(t *testing.T) {
	c, _, _, _ := newTestController(t, scenarioPrograms(), Config{})
	c.Start()
	c.Next(TemperatureReading(board.Top, "TH1", 90))

	if s := c.Next(Tick()); s.Kind != Cooling {
		t.Errorf("tick while cooling: got %s, want %s", s, Cooling)
	}
	if s := c.Next(TemperatureReading(board.Top, "TH1", 40.01)); s.Kind != Cooling {
		t.Errorf("above cool temp: got %s, want %s", s, Cooling)
	}
	if s := c.Next(TemperatureReading(board.Top, "TH1", 40)); s.Kind != ProgramFinished {
		t.Errorf("at cool temp: got %s, want %s", s, ProgramFinished)
	}
}

func TestReenterHeatingKeepsDeadline(t *testing.T) {
	c, top, _, clock := newTestController(t, scenarioPrograms(), Config{})
	first := c.Start()
	writes := len(top.calls)

	clock.now = clock.now.Add(3 * time.Millisecond)
	again := c.EnterHeating(first.Program)

	if !again.Deadline.Equal(first.Deadline) {
		t.Errorf("deadline: got %v, want %v", again.Deadline, first.Deadline)
	}
	if len(top.calls) != 2*writes {
		t.Fatalf("writes: got %d, want %d", len(top.calls), 2*writes)
	}
	if fmt.Sprint(top.calls[:writes]) != fmt.Sprint(top.calls[writes:]) {
		t.Errorf("repeated writes differ: %v", top.calls)
	}
	if c.Counts().Started != 1 {
		t.Errorf("started: got %d, want 1", c.Counts().Started)
	}
}

func TestDoneIsAbsorbing(t *testing.T) {
	progs := scenarioPrograms()[:1]
	c, _, _, _ := newTestController(t, progs, Config{})
	c.Start()
	c.Next(TemperatureReading(board.Top, "TH1", 90))
	c.Next(TemperatureReading(board.Top, "TH1", 20))
	if s := c.Next(Tick()); s.Kind != Done {
		t.Fatalf("got %s, want %s", s, Done)
	}
	if s := c.Next(TemperatureReading(board.Top, "TH1", 200)); s.Kind != Done {
		t.Errorf("after done: got %s, want %s", s, Done)
	}
}

func TestUnknownStateFails(t *testing.T) {
	c, _, _, _ := newTestController(t, scenarioPrograms(), Config{})
	if s := c.Next(Tick()); s.Kind != Failed {
		t.Errorf("next before start: got %s, want %s", s, Failed)
	}
	if !c.State().Terminal() {
		t.Error("failed state should be terminal")
	}
}

func assertHeatersOff(t *testing.T, boards ...*fakeBoard) {
	t.Helper()
	for _, b := range boards {
		if got := b.lastCall(); got.Op != "mode" || got.Value != device.HeaterOff {
			t.Errorf("%s board last write: got %v, want mode OFF", b.id, got)
		}
	}
}

func TestHeatersOffWhenDone(t *testing.T) {
	c, top, bottom, _ := newTestController(t, scenarioPrograms(), Config{})
	c.Run(scenarioEvents())
	assertHeatersOff(t, top, bottom)
}

func TestHeatersOffWhenExhausted(t *testing.T) {
	c, top, bottom, _ := newTestController(t, scenarioPrograms(), Config{})
	final := c.Run(events(Tick(), Tick()))
	if final.Kind != Heating {
		t.Errorf("final: got %s, want %s", final, Heating)
	}
	assertHeatersOff(t, top, bottom)
}

func TestCancelStopsAfterSleep(t *testing.T) {
	cancel := new(atomic.Bool)
	c, top, bottom, clock := newTestController(t, scenarioPrograms(), Config{Cancel: cancel})
	c.cfg.Sleep = func(d time.Duration) {
		clock.Sleep(d)
		if clock.sleeps == 3 {
			cancel.Store(true)
		}
	}

	final := c.Run(scenarioEvents())
	if clock.sleeps != 3 {
		t.Errorf("sleeps: got %d, want 3", clock.sleeps)
	}
	if final.Kind != Cooling {
		t.Errorf("final: got %s, want %s", final, Cooling)
	}
	if !c.Cancelled() {
		t.Error("controller should report cancelled")
	}
	assertHeatersOff(t, top, bottom)
}

type panicSource struct{}

func (panicSource) Next() (Event, bool) { panic("bus wedged") }

func TestHeatersOffOnPanic(t *testing.T) {
	c, top, bottom, _ := newTestController(t, scenarioPrograms(), Config{})

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		c.Run(panicSource{})
	}()
	assertHeatersOff(t, top, bottom)
}

func TestNewControllerErrors(t *testing.T) {
	top := newFakeBoard(board.Top)
	if _, err := NewController([]Board{top}, nil, Config{}); err == nil {
		t.Error("expected error for empty program list")
	}
	if _, err := NewController([]Board{top}, scenarioPrograms(), Config{}); err == nil {
		t.Error("expected error for program on unmanaged board")
	}
}

func TestPayloadEventsOrder(t *testing.T) {
	top, bottom := newFakeBoard(board.Top), newFakeBoard(board.Bottom)
	top.temp, bottom.target, bottom.temp = 31, "J7", 42
	src := NewPayloadEvents([]Board{top, bottom})

	want := []Event{
		TemperatureReading(board.Bottom, "J7", 42),
		TemperatureReading(board.Top, "TH1", 31),
		Tick(),
		TemperatureReading(board.Bottom, "J7", 42),
	}
	for i, w := range want {
		got, ok := src.Next()
		if !ok {
			t.Fatalf("event %d: source exhausted", i)
		}
		if got != w {
			t.Errorf("event %d: got %s, want %s", i, got, w)
		}
	}
}

func TestPayloadEventsSkipsFailedBoard(t *testing.T) {
	top, bottom := newFakeBoard(board.Top), newFakeBoard(board.Bottom)
	bottom.err = errors.New("nack")
	src := NewPayloadEvents([]Board{top, bottom})

	first, _ := src.Next()
	second, _ := src.Next()
	if first.Type != EventTemperature || first.Board != board.Top {
		t.Errorf("first: got %s, want top reading", first)
	}
	if second.Type != EventTime {
		t.Errorf("second: got %s, want Time", second)
	}
}

func TestRunProgramsLoopsUntilCancelled(t *testing.T) {
	top, bottom := newFakeBoard(board.Top), newFakeBoard(board.Bottom)
	top.temp = 30
	clock := newFakeClock()
	cancel := new(atomic.Bool)
	done := 0

	set := &program.Set{Loop: true, Programs: scenarioPrograms()[:1]}
	cfg := Config{
		Cadence: time.Millisecond,
		Now:     clock.Now,
		Sleep:   clock.Sleep,
		Cancel:  cancel,
		OnTransition: func(tr Transition) {
			if tr.To.Kind == Done {
				done++
				if done == 2 {
					cancel.Store(true)
				}
			}
		},
	}

	final, err := RunPrograms(set, []Board{top, bottom}, cfg)
	if err != nil {
		t.Fatalf("RunPrograms: %v", err)
	}
	if final.Kind != Done {
		t.Errorf("final: got %s, want %s", final, Done)
	}
	if done != 2 {
		t.Errorf("completed runs: got %d, want 2", done)
	}
	assertHeatersOff(t, top, bottom)
}

func TestRunProgramsOnce(t *testing.T) {
	top, bottom := newFakeBoard(board.Top), newFakeBoard(board.Bottom)
	top.temp = 30
	clock := newFakeClock()

	set := &program.Set{Programs: scenarioPrograms()[:1]}
	cfg := Config{Cadence: time.Millisecond, Now: clock.Now, Sleep: clock.Sleep}

	final, err := RunPrograms(set, []Board{top, bottom}, cfg)
	if err != nil {
		t.Fatalf("RunPrograms: %v", err)
	}
	if final.Kind != Done {
		t.Errorf("final: got %s, want %s", final, Done)
	}
}
