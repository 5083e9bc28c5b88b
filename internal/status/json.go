package status

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/device"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string                `json:"event,omitempty"`
	Reason        string                `json:"reason,omitempty"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	StartTime     string                `json:"start_time"`
	Timestamp     string                `json:"timestamp"`
	MQTT          MQTTStatus            `json:"mqtt"`
	Program       ProgramJSON           `json:"program"`
	Boards        map[string]*BoardJSON `json:"boards"`
	Config        ConfigJSON            `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ProgramJSON is the JSON representation of the runner state.
type ProgramJSON struct {
	Active    bool       `json:"active"`
	State     string     `json:"state"`
	ProgramID *int       `json:"program_id,omitempty"`
	Program   string     `json:"program,omitempty"`
	Board     string     `json:"board,omitempty"`
	Deadline  string     `json:"deadline,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Message   string     `json:"message,omitempty"`
	Since     string     `json:"since,omitempty"`
	Counts    CountsJSON `json:"counts"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	Started  int `json:"started"`
	Aborted  int `json:"aborted"`
	TimedOut int `json:"timed_out"`
	Finished int `json:"finished"`
}

// SensorInfoJSON describes one catalog sensor.
type SensorInfoJSON struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Unit  string  `json:"unit"`
	Iface string  `json:"iface"`
	Addr  string  `json:"addr"`
	PosX  float64 `json:"pos_x"`
	PosY  float64 `json:"pos_y"`
}

// BoardJSON is the status of one present board. Values are strings with
// three significant digits; null marks a failed read.
type BoardJSON struct {
	SensorInfo       []SensorInfoJSON   `json:"sensor_info"`
	SensorValues     map[string]*string `json:"sensor_values"`
	HeaterMode       *string            `json:"heater_mode"`
	TargetTemp       *string            `json:"target_temp"`
	TargetSensor     *string            `json:"target_sensor"`
	TargetSensorTemp *string            `json:"target_sensor_temp"`
	HeaterDuty       *string            `json:"heater_duty"`
	HeaterPower      *string            `json:"heater_power"`
	Flags            *string            `json:"flags"`
	ReadAt           string             `json:"read_at,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Boards          []string `json:"boards"`
	Version         string   `json:"version"`
	IntervalSeconds float64  `json:"interval_seconds"`
	LogPath         string   `json:"log_path,omitempty"`
	Broker          string   `json:"broker"`
	HTTPAddr        string   `json:"http_addr"`
}

// FormatValue renders a reading with three significant digits for readings
// up to 100: one decimal from 10 upwards, two below.
func FormatValue(v float64) string {
	if v >= 10 {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func value(v float64, err error) *string {
	if err != nil {
		return nil
	}
	s := FormatValue(v)
	return &s
}

func str(s fmt.Stringer, err error) *string {
	if err != nil {
		return nil
	}
	v := s.String()
	return &v
}

func unit(k board.Kind) string {
	switch k {
	case board.Msp430Voltage:
		return "V"
	case board.Msp430Current:
		return "A"
	}
	return "°C"
}

func addr(s board.Sensor) string {
	return fmt.Sprintf("0x%02x", s.Loc)
}

// NewBoardJSON builds the status of a board from a reading. It returns nil
// for an absent board.
func NewBoardJSON(r *board.Reading) *BoardJSON {
	if r == nil {
		return nil
	}
	b := &BoardJSON{
		SensorValues: make(map[string]*string, len(r.Catalog)),
	}
	for i, s := range r.Catalog {
		b.SensorInfo = append(b.SensorInfo, SensorInfoJSON{
			ID:    s.ID,
			Label: s.Label,
			Unit:  unit(s.Kind),
			Iface: s.Kind.String(),
			Addr:  addr(s),
			PosX:  s.X,
			PosY:  s.Y,
		})
		b.SensorValues[s.ID] = value(r.Sensors[i].Display, r.Sensors[i].Err)
	}

	b.HeaterMode = str(r.HeaterMode.Display, r.HeaterMode.Err)
	b.TargetTemp = value(math.Round(r.TargetTemp.Display), r.TargetTemp.Err)
	b.TargetSensor = str(r.TargetSensor.Display, r.TargetSensor.Err)
	if b.TargetSensor != nil {
		b.TargetSensorTemp = b.SensorValues[*b.TargetSensor]
	}
	if r.HeaterDuty.OK() {
		scale := float64(device.MaxPWMDuty)
		if r.HeaterMode.OK() && r.HeaterMode.Display == device.HeaterPID {
			scale = float64(device.MaxPIDDuty)
		}
		b.HeaterDuty = value(float64(r.HeaterDuty.Display)/scale, nil)
	}
	b.HeaterPower = value(r.HeaterPower())
	b.Flags = str(r.Flags.Display, r.Flags.Err)
	return b
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Program:       buildProgram(snap.Program),
		Boards:        make(map[string]*BoardJSON, len(snap.Boards)),
		Config: ConfigJSON{
			Boards:          snap.Config.Boards,
			Version:         snap.Config.Version,
			IntervalSeconds: snap.Config.Interval.Seconds(),
			LogPath:         snap.Config.LogPath,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
		},
	}
	for _, bs := range snap.Boards {
		b := NewBoardJSON(bs.Reading)
		if b != nil {
			b.ReadAt = bs.ReadAt.UTC().Format(time.RFC3339)
		}
		inner.Boards[bs.ID.String()] = b
	}
	return inner
}

func buildProgram(p ProgramState) ProgramJSON {
	pj := ProgramJSON{
		Active: p.Active,
		State:  string(p.State),
		Counts: CountsJSON{
			Started:  p.Counts.Started,
			Aborted:  p.Counts.Aborted,
			TimedOut: p.Counts.TimedOut,
			Finished: p.Counts.Finished,
		},
		Reason:  string(p.Reason),
		Message: p.Message,
	}
	if pj.State == "" {
		pj.State = "IDLE"
	}
	if p.Program != "" {
		id := p.ProgramID
		pj.ProgramID = &id
		pj.Program = p.Program
		pj.Board = p.Board.String()
	}
	if !p.Deadline.IsZero() {
		pj.Deadline = p.Deadline.UTC().Format(time.RFC3339)
	}
	if !p.Since.IsZero() {
		pj.Since = p.Since.UTC().Format(time.RFC3339)
	}
	return pj
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
