package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/config"
	"github.com/sweeney/hestia/internal/csvlog"
	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/gpio"
	"github.com/sweeney/hestia/internal/mqtt"
	"github.com/sweeney/hestia/internal/program"
	"github.com/sweeney/hestia/internal/reading"
	"github.com/sweeney/hestia/internal/runner"
	"github.com/sweeney/hestia/internal/status"
)

var stdout io.Writer = os.Stdout

func celsius(r reading.Result[float64]) string {
	if !r.OK() {
		return "#err"
	}
	return fmt.Sprintf("%.2f", r.Display)
}

func stringer[T fmt.Stringer](r reading.Result[T]) string {
	if !r.OK() {
		return "#err"
	}
	return r.Display.String()
}

// formatStatus renders one board as a single line.
func formatStatus(id board.ID, r *board.Reading) string {
	if r == nil {
		return fmt.Sprintf("board:%s absent", id)
	}

	temp := "#err"
	if r.TargetSensor.OK() {
		if res, ok := r.Sensor(r.TargetSensor.Display.String()); ok {
			temp = celsius(res)
		}
	}
	duty := "#err"
	if r.HeaterDuty.OK() {
		duty = strconv.Itoa(int(r.HeaterDuty.Display))
	}

	power := "V:#err I:#err"
	vHigh, okHigh := r.Sensor("v_high")
	vLow, okLow := r.Sensor("v_low")
	vCurr, okCurr := r.Sensor("v_curr")
	if okHigh && okLow && okCurr && vHigh.OK() && vLow.OK() && vCurr.OK() {
		power = fmt.Sprintf("V:%.2f/%.2f I:%.2f", vHigh.Display, vLow.Display,
			board.HeaterCurrent(r.Version, vLow.Display, vCurr.Display))
	}

	return fmt.Sprintf("board:%s %s temp:%s heater:%s target:%s max:%s sensor:%s duty:%s %s %s",
		id, r.Version, temp, stringer(r.HeaterMode), celsius(r.TargetTemp), celsius(r.MaxTemp),
		stringer(r.TargetSensor), duty, power, stringer(r.Flags))
}

func printStatus(boards []*board.Board) {
	for _, b := range boards {
		fmt.Fprintln(stdout, formatStatus(b.ID(), b.Read()))
	}
}

func cmdStatus(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	printStatus(openBoards(cfg))
	return nil
}

// setter parses "[-board X] <value>" for the single-register commands.
func setter(name string, cfg config.Config, args []string) (target *board.Board, boards []*board.Board, value string, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	id := fs.String("board", "", "board to change (top, bottom or bus number)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, "", errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(fs.Output(), "usage: hestia %s [-board X] <value>\n", name)
		return nil, nil, "", errUsage
	}
	boards = openBoards(cfg)
	target, err = selectBoard(boards, *id)
	if err != nil {
		return nil, nil, "", err
	}
	return target, boards, fs.Arg(0), nil
}

func cmdHeater(cfg config.Config, args []string) error {
	target, boards, value, err := setter("heater", cfg, args)
	if err != nil {
		return err
	}
	mode, err := device.ParseHeaterMode(value)
	if err != nil {
		return err
	}
	board.SwitchHeater(boards, target, mode)
	printStatus(boards)
	return nil
}

func parseTemp(s string) (float64, error) {
	t, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q", s)
	}
	return t, nil
}

func cmdTarget(cfg config.Config, args []string) error {
	target, boards, value, err := setter("target", cfg, args)
	if err != nil {
		return err
	}
	temp, err := parseTemp(value)
	if err != nil {
		return err
	}
	target.WriteTargetTemp(temp)
	printStatus(boards)
	return nil
}

func cmdMax(cfg config.Config, args []string) error {
	target, boards, value, err := setter("max", cfg, args)
	if err != nil {
		return err
	}
	temp, err := parseTemp(value)
	if err != nil {
		return err
	}
	target.WriteMaxTemp(temp)
	printStatus(boards)
	return nil
}

func cmdSensor(cfg config.Config, args []string) error {
	target, boards, value, err := setter("sensor", cfg, args)
	if err != nil {
		return err
	}
	s, err := device.ParseTargetSensor(value)
	if err != nil {
		return err
	}
	target.WriteTargetSensor(s)
	printStatus(boards)
	return nil
}

func cmdDuty(cfg config.Config, args []string) error {
	target, boards, value, err := setter("duty", cfg, args)
	if err != nil {
		return err
	}
	duty, err := strconv.ParseUint(value, 10, 16)
	if err != nil || duty > uint64(device.MaxPIDDuty) {
		return fmt.Errorf("invalid duty %q (0-%d)", value, device.MaxPIDDuty)
	}
	target.WriteHeaterDuty(uint16(duty))
	printStatus(boards)
	return nil
}

func cmdEnable(cfg config.Config, args []string) error {
	out := gpio.NewRealOutput()
	defer out.Close()
	return gpio.EnablePayload(out)
}

func cmdDisable(cfg config.Config, args []string) error {
	out := gpio.NewRealOutput()
	defer out.Close()
	return gpio.DisablePayload(out)
}

func cmdLog(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	raw := fs.Bool("raw", false, "log raw register codes instead of display values")
	interval := fs.Duration("interval", cfg.LogInterval.Duration, "sampling interval")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", *interval)
	}

	boards := openBoards(cfg)
	w := csvlog.NewStreamWriter(stdout, *raw)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return logLoop(boards, w, time.Now, ticker.C, sigCh)
}

// logLoop writes one row per board immediately and then on every tick until
// a signal arrives.
func logLoop(boards []*board.Board, w *csvlog.Writer, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		if err := w.Write(now(), readAll(boards)...); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
		select {
		case s := <-sig:
			log.Printf("received %v, stopping", s)
			return nil
		case <-tick:
		}
	}
}

// publisher is what the commands need from MQTT.
type publisher interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

// newPublisher connects to the configured broker, or returns a no-op
// publisher when none is set.
func newPublisher(cfg config.Config) publisher {
	if cfg.MQTTBroker == "" {
		return mqtt.NopPublisher{}
	}
	p, err := mqtt.NewRealPublisher(cfg.MQTTBroker, cfg.MQTTClientID)
	if err != nil {
		log.Printf("mqtt disabled: %v", err)
		return mqtt.NopPublisher{}
	}
	log.Printf("publishing to %s as %s", cfg.MQTTBroker, cfg.MQTTClientID)
	return p
}

// observeTransitions returns a runner callback that logs each transition and
// forwards it to the tracker (if any) and publisher.
func observeTransitions(pub mqtt.Publisher, tracker *status.Tracker) func(runner.Transition) {
	return func(tr runner.Transition) {
		log.Printf("program: %s -> %s (%s)", tr.From, tr.To, tr.Reason)
		if tracker != nil {
			tracker.ObserveTransition(tr)
		}
		if err := pub.Publish(tr); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
}

func runProgramSet(set *program.Set, boards []*board.Board, pub mqtt.Publisher, tracker *status.Tracker, cancel *atomic.Bool) (runner.State, error) {
	return runner.RunPrograms(set, runnerBoards(boards), runner.Config{
		Cancel:       cancel,
		OnTransition: observeTransitions(pub, tracker),
	})
}

func loadPrograms(path string) (*program.Set, error) {
	set, err := program.Load(path)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d programs from %s (loop=%v)", len(set.Programs), path, set.Loop)
	for _, p := range set.Programs {
		log.Printf("  %s", p)
	}
	return set, nil
}

func cmdRun(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	path := cfg.ProgramFile
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		return fmt.Errorf("no program file given and %s_PROGRAM_FILE is not set", config.Prefix)
	}
	set, err := loadPrograms(path)
	if err != nil {
		return err
	}

	if cfg.PayloadGPIO {
		out := gpio.NewRealOutput()
		defer out.Close()
		if err := gpio.EnablePayload(out); err != nil {
			log.Printf("payload enable: %v", err)
		}
		defer func() {
			if err := gpio.DisablePayload(out); err != nil {
				log.Printf("payload disable: %v", err)
			}
		}()
	}

	boards := openBoards(cfg)
	pub := newPublisher(cfg)
	defer pub.Close()

	var cancel atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		s := <-sigCh
		log.Printf("received %v, stopping after the current step", s)
		cancel.Store(true)
	}()

	final, err := runProgramSet(set, boards, pub, nil, &cancel)
	if err != nil {
		return err
	}
	if final.Kind == runner.Failed {
		return fmt.Errorf("program run failed: %s", final.Message)
	}
	return nil
}
