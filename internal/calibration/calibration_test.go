package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/hestia/internal/reading"
)

func TestCodeToTemp(t *testing.T) {
	tests := []struct {
		code uint16
		want float64
	}{
		{2048, 25.0},
		{1024, 0.323},
		{3072, 54.571},
	}
	for _, tt := range tests {
		got, err := CodeToTemp(tt.code, Resolution)
		require.NoError(t, err, "code %d", tt.code)
		assert.InDelta(t, tt.want, got, 0.001, "code %d", tt.code)
	}
}

func TestCodeToTempRange(t *testing.T) {
	for _, code := range []uint16{0, 1, 0x000F, MaxCode, Resolution - 1, Resolution, 0xFFFF} {
		_, err := CodeToTemp(code, Resolution)
		assert.ErrorIs(t, err, reading.ErrValueOutOfRange, "code 0x%04x", code)
	}
	for _, code := range []uint16{MinCode, 0x0800, MaxCode - 1} {
		_, err := CodeToTemp(code, Resolution)
		assert.NoError(t, err, "code 0x%04x", code)
	}
}

func TestTempToCode(t *testing.T) {
	code, err := TempToCode(25.0)
	require.NoError(t, err)
	assert.Equal(t, uint16(2048), code)

	_, err = TempToCode(-55)
	assert.ErrorIs(t, err, reading.ErrValueOutOfRange)
	_, err = TempToCode(150)
	assert.ErrorIs(t, err, reading.ErrValueOutOfRange)
}

func TestRoundTrip(t *testing.T) {
	for temp := -50.0; temp < 150; temp += 2.5 {
		code, err := TempToCode(temp)
		require.NoError(t, err, "temp %.1f", temp)

		back, err := CodeToTemp(code, Resolution)
		if code < MinCode || code >= MaxCode {
			// extreme setpoints land outside the readable window
			continue
		}
		require.NoError(t, err, "temp %.1f", temp)

		// tolerance is the width of one code at this temperature
		lo, _ := CodeToTemp(code-1, Resolution)
		hi, _ := CodeToTemp(code+1, Resolution)
		step := (hi - lo) / 2
		if step < 0 {
			step = -step
		}
		assert.InDelta(t, temp, back, step, "temp %.1f code %d", temp, code)
	}
}

func TestVoltageAndCurrent(t *testing.T) {
	assert.InDelta(t, 3.35, CodeToVoltage(2048), 1e-9)
	assert.InDelta(t, 1.675, CodeToCurrentSense(2048), 1e-9)
	assert.Equal(t, 0.0, CodeToVoltage(0))
}
