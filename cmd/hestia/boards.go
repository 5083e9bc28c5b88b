package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/sweeney/hestia/internal/board"
	"github.com/sweeney/hestia/internal/config"
	"github.com/sweeney/hestia/internal/device"
	"github.com/sweeney/hestia/internal/i2c"
	"github.com/sweeney/hestia/internal/runner"
)

// openBoards creates a Board per configured bus.
func openBoards(cfg config.Config) []*board.Board {
	boards := make([]*board.Board, 0, len(cfg.Boards))
	for _, id := range cfg.Boards {
		var bus i2c.Bus
		if cfg.Simulate {
			bus = device.NewSimulatedBus(id.BusID(), cfg.BoardVersion.AdsAddr())
		} else {
			bus = i2c.NewRealBus(id.BusID())
		}
		boards = append(boards, board.New(id, cfg.BoardVersion, bus))
	}
	paths := make([]string, len(boards))
	for i, b := range boards {
		paths[i] = b.String()
	}
	log.Printf("using %d %s boards: %s", len(boards), cfg.BoardVersion, strings.Join(paths, ", "))
	return boards
}

// selectBoard finds the board named by flag. The flag may be omitted when
// only one board is configured.
func selectBoard(boards []*board.Board, flag string) (*board.Board, error) {
	if flag == "" {
		if len(boards) == 1 {
			return boards[0], nil
		}
		return nil, fmt.Errorf("-board is required with %d boards configured", len(boards))
	}
	id, err := board.ParseID(flag)
	if err != nil {
		return nil, err
	}
	for _, b := range boards {
		if b.ID() == id {
			return b, nil
		}
	}
	return nil, fmt.Errorf("board %s is not configured", id)
}

func runnerBoards(boards []*board.Board) []runner.Board {
	out := make([]runner.Board, len(boards))
	for i, b := range boards {
		out[i] = b
	}
	return out
}

func readAll(boards []*board.Board) []*board.Reading {
	out := make([]*board.Reading, len(boards))
	for i, b := range boards {
		out[i] = b.Read()
	}
	return out
}
