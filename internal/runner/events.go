package runner

import "log"

// Source yields events until it is exhausted.
type Source interface {
	Next() (Event, bool)
}

// PayloadEvents reads the boards once per tick. A tick yields one reading per
// board of its current target sensor followed by a single Time event, newest
// reading first. Boards whose target sensor cannot be read are skipped.
type PayloadEvents struct {
	boards []Board
	buf    []Event
}

// NewPayloadEvents creates a Source that never runs dry.
func NewPayloadEvents(boards []Board) *PayloadEvents {
	return &PayloadEvents{boards: boards}
}

// Next returns the next buffered event, refilling the buffer when empty.
func (p *PayloadEvents) Next() (Event, bool) {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, Tick())
		for _, b := range p.boards {
			if ev, ok := readBoard(b); ok {
				p.buf = append(p.buf, ev)
			}
		}
	}
	ev := p.buf[len(p.buf)-1]
	p.buf = p.buf[:len(p.buf)-1]
	return ev, true
}

func readBoard(b Board) (Event, bool) {
	s, err := b.TargetSensor()
	if err != nil {
		log.Printf("runner: %s board: no target sensor: %v", b.ID(), err)
		return Event{}, false
	}
	temp, err := b.ReadTargetSensorTemp()
	if err != nil {
		log.Printf("runner: %s board: reading %s: %v", b.ID(), s.ID, err)
		return Event{}, false
	}
	return TemperatureReading(b.ID(), s.ID, temp), true
}
