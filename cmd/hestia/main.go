// Command hestia reads and controls the Hestia thermal payload boards: status
// and manual heater control, CSV logging, program runs and the status daemon.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/sweeney/hestia/internal/config"
	"github.com/sweeney/hestia/internal/i2c"
)

type command struct {
	run   func(cfg config.Config, args []string) error
	usage string
}

var commands = map[string]command{
	"status":  {cmdStatus, "show status of boards"},
	"log":     {cmdLog, "log sensor values to stdout as CSV"},
	"run":     {cmdRun, "run a program file (TOML or YAML)"},
	"heater":  {cmdHeater, "set heater mode: off, thermostat or on"},
	"target":  {cmdTarget, "set target temperature in °C"},
	"sensor":  {cmdSensor, "set target sensor: TH1, TH2, TH3, J7 or J8"},
	"duty":    {cmdDuty, "set duty cycle (0-255 PWM, 0-1000 PID)"},
	"max":     {cmdMax, "set max heater temperature in °C"},
	"enable":  {cmdEnable, "enable payload power"},
	"disable": {cmdDisable, "disable payload power"},
	"serve":   {cmdServe, "log to files, publish telemetry and serve the status page"},
}

// errUsage is returned for bad invocations; main exits 2 without logging it.
var errUsage = errors.New("usage")

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: hestia [flags] <command> [args]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-8s %s\n", name, commands[name].usage)
	}
	fmt.Fprintf(out, "\nflags:\n")
	flag.PrintDefaults()
}

func main() {
	envFile := flag.String("env", config.DefaultEnvFile, "dotenv file read before the environment")
	trace := flag.Bool("trace", false, "log every successful I2C transaction")
	simulate := flag.Bool("simulate", false, "use simulated boards instead of I2C")
	// Passed by the flight scheduler and ignored.
	flag.String("c", "", "ignored")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.ReadFile(*envFile)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *simulate {
		cfg.Simulate = true
	}
	i2c.SetTrace(*trace || cfg.Trace)

	if err := dispatch(cfg, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatalf("fatal: %v", err)
	}
}

// dispatch runs the named command. No command means status.
func dispatch(cfg config.Config, args []string) error {
	name := "status"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(flag.CommandLine.Output(), "unknown command %q\n", name)
		flag.Usage()
		return errUsage
	}
	return cmd.run(cfg, args)
}
