package reading

import (
	"errors"
	"io"
	"testing"
)

func TestBusErrorUnwrap(t *testing.T) {
	err := error(&BusError{Sensor: "TH1", Err: io.ErrUnexpectedEOF})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("BusError should unwrap to the transport error")
	}
	var be *BusError
	if !errors.As(err, &be) || be.Sensor != "TH1" {
		t.Errorf("errors.As failed: %v", err)
	}
	if got := err.Error(); got != "i2c error reading TH1: unexpected EOF" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestResult(t *testing.T) {
	r := Of(Value[float64]{Raw: 2048, Display: 25}, nil)
	if !r.OK() || r.Raw != 2048 || r.Display != 25 {
		t.Errorf("unexpected result %+v", r)
	}

	f := Fail[float64](ErrDisabled)
	if f.OK() {
		t.Error("failed result should not be OK")
	}
	if !errors.Is(f.Err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", f.Err)
	}
}
