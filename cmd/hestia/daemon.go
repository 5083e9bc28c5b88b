package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/config"
	"github.com/sweeney/hestia/internal/csvlog"
	"github.com/sweeney/hestia/internal/mqtt"
	"github.com/sweeney/hestia/internal/status"
	"github.com/sweeney/hestia/internal/web"
)

func cmdServe(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	httpAddr := fs.String("http", cfg.Addr(), "HTTP status address (empty to disable)")
	programFile := fs.String("program", "", "program file to run alongside logging")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	boards := openBoards(cfg)
	pub := newPublisher(cfg)
	defer pub.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		Boards:   cfg.Boards.Strings(),
		Version:  cfg.BoardVersion.String(),
		Interval: cfg.LogInterval.Duration,
		LogPath:  cfg.LogPath,
		Broker:   cfg.MQTTBroker,
		HTTPAddr: *httpAddr,
	})

	var writers []*csvlog.Writer
	if cfg.LogPath != "" {
		for _, raw := range []bool{false, true} {
			w, err := csvlog.NewFileWriter(cfg.LogPath, raw)
			if err != nil {
				return err
			}
			writers = append(writers, w)
		}
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := pub.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	if *httpAddr != "" {
		srv := web.New(*httpAddr, tracker, boards, cfg.LogPath)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", *httpAddr)
	}

	var cancel atomic.Bool
	var programDone chan struct{}
	if *programFile != "" {
		set, err := loadPrograms(*programFile)
		if err != nil {
			return err
		}
		programDone = make(chan struct{})
		go func() {
			defer close(programDone)
			if _, err := runProgramSet(set, boards, pub, tracker, &cancel); err != nil {
				log.Printf("program run: %v", err)
			}
		}()
	}

	log.Printf("started: interval=%v log_path=%q broker=%q heartbeat=%v",
		cfg.LogInterval.Duration, cfg.LogPath, cfg.MQTTBroker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.LogInterval.Duration)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	err := runLoop(boards, writers, pub, pub, tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh)
	if programDone != nil {
		cancel.Store(true)
		<-programDone
	}
	return err
}

func runLoop(boards []*board.Board, writers []*csvlog.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()
	present := make(map[board.ID]bool, len(boards))

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			readings := make([]*board.Reading, len(boards))
			for i, b := range boards {
				r := b.Read()
				readings[i] = r
				if was, seen := present[b.ID()]; !seen || was != (r != nil) {
					if r != nil {
						log.Printf("%s present", b)
					} else {
						log.Printf("%s absent", b)
					}
					present[b.ID()] = r != nil
				}
				tracker.UpdateBoard(b.ID(), r, t)
			}

			for _, w := range writers {
				if err := w.Write(t, readings...); err != nil {
					log.Printf("log write error: %v", err)
				}
			}

			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				snap := tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v program=%s started=%d finished=%d",
					snap.Uptime().Round(time.Second), snap.Program.State,
					snap.Program.Counts.Started, snap.Program.Counts.Finished)
				hbEvent := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
