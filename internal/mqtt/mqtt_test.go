package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/program"
	"github.com/sweeney/hestia/internal/runner"
)

var testProgram = &program.Program{ID: 2, Name: "soak", HeatBoard: board.Bottom}

func TestTopics(t *testing.T) {
	if Topic != "uts/hestia/program" {
		t.Errorf("Topic: got %q", Topic)
	}
	if TopicSystem != "uts/hestia/system" {
		t.Errorf("TopicSystem: got %q", TopicSystem)
	}
}

func TestFormatPayloadStart(t *testing.T) {
	ts := time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)
	tr := runner.Transition{
		Timestamp: ts,
		From:      runner.State{Kind: runner.ProgramFinished},
		To:        runner.State{Kind: runner.Heating, Program: testProgram, Deadline: ts.Add(time.Minute)},
		Reason:    runner.ReasonStart,
	}

	payload, err := FormatPayload(tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"program":{"timestamp":"2026-02-02T22:18:12Z","from":"PROGRAM_FINISHED","to":"HEATING",` +
		`"reason":"START","program_id":2,"name":"soak","board":"bottom","deadline":"2026-02-02T22:19:12Z"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadTemperatureTransition(t *testing.T) {
	tr := runner.Transition{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 500000000, time.UTC),
		From:      runner.State{Kind: runner.Cooling, Program: testProgram},
		To:        runner.State{Kind: runner.ProgramFinished},
		Reason:    runner.ReasonCoolTemp,
		Temp:      24.5,
	}

	payload, err := FormatPayload(tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	p := parsed.Program
	if p.Timestamp != "2026-02-02T22:18:12.5Z" {
		t.Errorf("timestamp: got %s", p.Timestamp)
	}
	if p.Temp == nil || *p.Temp != 24.5 {
		t.Errorf("temp: got %v, want 24.5", p.Temp)
	}
	if p.ProgramID == nil || *p.ProgramID != 2 {
		t.Error("program of the state being left should be reported")
	}
	if p.Deadline != "" {
		t.Errorf("deadline: got %q, want empty", p.Deadline)
	}
}

func TestFormatPayloadOmitsTempForTimeTransitions(t *testing.T) {
	tr := runner.Transition{
		Timestamp: time.Now(),
		From:      runner.State{Kind: runner.Heating, Program: testProgram},
		To:        runner.State{Kind: runner.Cooling, Program: testProgram},
		Reason:    runner.ReasonHeatTime,
	}
	payload, _ := FormatPayload(tr)

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, exists := parsed["program"]["temp"]; exists {
		t.Error("HEAT_TIME_ELAPSED should not carry a temperature")
	}
}

func TestFormatPayloadFailed(t *testing.T) {
	tr := runner.Transition{
		Timestamp: time.Now(),
		From:      runner.State{Kind: "BOGUS"},
		To:        runner.State{Kind: runner.Failed, Message: "unexpected state"},
		Reason:    runner.ReasonInvalid,
	}
	payload, _ := FormatPayload(tr)

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Program.Message != "unexpected state" {
		t.Errorf("message: got %q", parsed.Program.Message)
	}
	if parsed.Program.ProgramID != nil {
		t.Error("program_id should be omitted")
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, _ := FormatSystemPayload(event)
	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 10, 30, 0, 0, loc),
		Event:     "HEARTBEAT",
	}

	payload, _ := FormatSystemPayload(event)
	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Timestamp != "2026-02-10T08:30:00Z" {
		t.Errorf("timestamp: got %s, want 2026-02-10T08:30:00Z", parsed.System.Timestamp)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload: got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	var _ Publisher = f
	var _ ConnectionStatus = f

	tr := runner.Transition{Timestamp: time.Now(), To: runner.State{Kind: runner.Done}, Reason: runner.ReasonNext}
	if err := f.Publish(tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Transitions) != 1 || len(f.Payloads) != 1 {
		t.Fatalf("expected 1 transition and payload, got %d/%d", len(f.Transitions), len(f.Payloads))
	}
	if f.Transitions[0].To.Kind != runner.Done {
		t.Errorf("recorded transition: got %v", f.Transitions[0].To)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(runner.Transition{}); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(f.Transitions) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherSystemEvents(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT"})
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "SIGTERM"})

	got := f.Events()
	want := []string{"STARTUP", "HEARTBEAT", "SHUTDOWN"}
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if !f.SystemEvents[0].Retained || f.SystemEvents[1].Retained {
		t.Error("retained flag not recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(runner.Transition{})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Connected = true
	f.Close()

	f.Reset()

	if len(f.Transitions) != 0 || len(f.Payloads) != 0 || len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("expected recorded events cleared")
	}
	if f.Closed || f.IsConnected() {
		t.Error("expected Closed and Connected reset")
	}

	f.Publish(runner.Transition{})
	if len(f.Transitions) != 1 {
		t.Errorf("expected publisher reusable after reset, got %d", len(f.Transitions))
	}
}
