// Package board models one physical Hestia board: its identity, hardware
// revision, sensor catalog and heater controller.
package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/i2c"
)

// ID identifies a board by the I2C bus it sits on.
type ID uint8

const (
	Top    ID = 1
	Bottom ID = 2
)

// IDs lists every board position.
var IDs = []ID{Top, Bottom}

func (id ID) String() string {
	switch id {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	}
	return fmt.Sprintf("board-%d", uint8(id))
}

// BusID returns N in /dev/i2c-N.
func (id ID) BusID() uint8 {
	return uint8(id)
}

// ParseID accepts "top", "bottom" or a bus number.
func ParseID(s string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return Top, nil
	case "bottom":
		return Bottom, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid board %q", s)
	}
	return ID(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	v, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// UnmarshalJSON accepts a bus number or a board name.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if u, err := strconv.Unquote(s); err == nil {
		s = u
	}
	return id.UnmarshalText([]byte(s))
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Version is a hardware revision.
type Version uint8

const (
	V1_1 Version = iota + 1
	V2_0
	V2_2
)

func (v Version) String() string {
	switch v {
	case V1_1:
		return "v1.1"
	case V2_0:
		return "v2.0"
	case V2_2:
		return "v2.2"
	}
	return fmt.Sprintf("Version(%d)", uint8(v))
}

// ParseVersion accepts forms like "2.2", "v2.2", "2" or "V1.1".
func ParseVersion(s string) (Version, error) {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "v")
	switch t {
	case "1.1":
		return V1_1, nil
	case "2", "2.0":
		return V2_0, nil
	case "2.2":
		return V2_2, nil
	}
	return 0, fmt.Errorf("unknown board version %q (want 1.1, 2.0 or 2.2)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	p, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// AdsAddr returns where the multiplexing ADC answers on this revision.
func (v Version) AdsAddr() i2c.Addr {
	if v == V1_1 {
		return device.Ads7828AddrV1
	}
	return device.Ads7828AddrV2
}
