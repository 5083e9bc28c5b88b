// Package config reads the daemon configuration from UTS_* environment
// variables, after loading a .env file if one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sweeney/hestia/internal/board"
)

// Prefix is prepended to every variable name.
const Prefix = "UTS"

// DefaultEnvFile is loaded by Read when present.
const DefaultEnvFile = ".env"

// Boards is a comma separated list of board buses, e.g. "1,2" or "top".
type Boards []board.ID

// Decode implements envconfig.Decoder.
func (b *Boards) Decode(value string) error {
	var ids Boards
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := board.ParseID(part)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	*b = ids
	return nil
}

// Strings returns the board names.
func (b Boards) Strings() []string {
	out := make([]string, len(b))
	for i, id := range b {
		out[i] = id.String()
	}
	return out
}

// Interval is a duration that also accepts a bare number of seconds.
type Interval struct {
	time.Duration
}

// Decode implements envconfig.Decoder.
func (i *Interval) Decode(value string) error {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		i.Duration = time.Duration(n) * time.Second
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid interval %q", value)
	}
	i.Duration = d
	return nil
}

// Config is the daemon configuration.
type Config struct {
	// Boards lists the I2C buses with a board attached.
	Boards Boards `envconfig:"I2C_BUS" default:"1,2"`

	// BoardVersion selects addresses and formulas for the board revision.
	BoardVersion board.Version `envconfig:"BOARD_VERSION" default:"2.2"`

	// LogPath is the CSV log directory. Empty disables file logging.
	LogPath string `envconfig:"LOG_PATH"`

	// LogInterval is the time between samples.
	LogInterval Interval `envconfig:"LOG_INTERVAL" default:"5s"`

	// ProgramFile is the program file used when none is given on the
	// command line.
	ProgramFile string `envconfig:"PROGRAM_FILE"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":5000"`
	// HTTPPort overrides the port of HTTPAddr when set.
	HTTPPort int `envconfig:"HTTP_PORT"`

	// MQTTBroker is the broker URL. Empty disables telemetry.
	MQTTBroker   string `envconfig:"MQTT_BROKER"`
	MQTTClientID string `envconfig:"MQTT_CLIENT_ID" default:"hestia"`

	// Heartbeat is the period of HEARTBEAT system events. Zero disables them.
	Heartbeat time.Duration `envconfig:"HEARTBEAT" default:"15m"`

	// Simulate replaces the I2C buses with simulated boards.
	Simulate bool `envconfig:"SIMULATE"`

	// PayloadGPIO enables the payload around program runs.
	PayloadGPIO bool `envconfig:"PAYLOAD_GPIO"`

	// Trace logs every successful bus transaction.
	Trace bool `envconfig:"I2C_TRACE"`
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	if c.HTTPPort == 0 {
		return c.HTTPAddr
	}
	host := c.HTTPAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host + ":" + strconv.Itoa(c.HTTPPort)
}

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	var errs []error
	if len(c.Boards) == 0 {
		errs = append(errs, errors.New("no boards configured"))
	}
	seen := make(map[board.ID]bool)
	for _, id := range c.Boards {
		if seen[id] {
			errs = append(errs, fmt.Errorf("board %s listed twice", id))
		}
		seen[id] = true
	}
	if c.LogInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("log interval must be positive, got %s", c.LogInterval.Duration))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must not be negative, got %s", c.Heartbeat))
	}
	return errors.Join(errs...)
}

// Read loads DefaultEnvFile if it exists and then the environment.
func Read() (Config, error) {
	return ReadFile(DefaultEnvFile)
}

// ReadFile loads envFile, which may be missing, and then the environment.
// Variables already set in the environment win over the file.
func ReadFile(envFile string) (Config, error) {
	var c Config
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := envconfig.Process(Prefix, &c); err != nil {
		return c, fmt.Errorf("read environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
