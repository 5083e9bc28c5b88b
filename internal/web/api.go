package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/status"
)

// BoardUpdate is the body of POST /api/status. Omitted fields are left alone.
type BoardUpdate struct {
	Board        board.ID `json:"board"`
	HeaterMode   *string  `json:"heater_mode"`
	HeaterDuty   *uint16  `json:"heater_duty"`
	TargetTemp   *float64 `json:"target_temp"`
	TargetSensor *string  `json:"target_sensor"`
}

// Apply writes the update to the board it names. A mode other than OFF
// switches every other board off first, and then only the mode is written.
func (u BoardUpdate) Apply(boards []*board.Board) error {
	var target *board.Board
	for _, b := range boards {
		if b.ID() == u.Board {
			target = b
		}
	}
	if target == nil {
		return fmt.Errorf("board %s not configured", u.Board)
	}

	if u.HeaterMode != nil {
		mode, err := device.ParseHeaterMode(*u.HeaterMode)
		if err != nil {
			return err
		}
		board.SwitchHeater(boards, target, mode)
		return nil
	}

	var sensor *device.TargetSensor
	if u.TargetSensor != nil {
		s, err := device.ParseTargetSensor(*u.TargetSensor)
		if err != nil {
			return err
		}
		sensor = &s
	}
	if u.HeaterDuty != nil {
		target.WriteHeaterDuty(*u.HeaterDuty)
	}
	if u.TargetTemp != nil {
		target.WriteTargetTemp(*u.TargetTemp)
	}
	if sensor != nil {
		target.WriteTargetSensor(*sensor)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.getStatus(w)
	case http.MethodPost:
		s.postStatus(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// getStatus reads every board now rather than serving the last snapshot.
func (s *Server) getStatus(w http.ResponseWriter) {
	out := make(map[string]*status.BoardJSON, len(s.boards))
	for _, b := range s.boards {
		rd := b.Read()
		s.tracker.UpdateBoard(b.ID(), rd, s.now())
		out[b.ID().String()] = status.NewBoardJSON(rd)
	}
	writeJSON(w, out)
}

func (s *Server) postStatus(w http.ResponseWriter, r *http.Request) {
	var u BoardUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		http.Error(w, fmt.Sprintf("invalid update: %v", err), http.StatusBadRequest)
		return
	}
	if err := u.Apply(s.boards); err != nil {
		log.Printf("web: update rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("web: applied update to %s board", u.Board)
	http.Redirect(w, r, "/api/status", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}
