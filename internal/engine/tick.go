// Package engine provides the round-based simulation loop and the round
// driver that sequences capital clearing, goods clearing, and price
// formation.
package engine

import (
	"log/slog"
	"sync/atomic"
)

// Engine drives the simulation forward one round at a time.
type Engine struct {
	Round     uint64 // Last completed round (monotonic)
	MaxRounds uint64 // Stop after this round; 0 runs until Stop

	running atomic.Bool

	// OnRound runs each round. A returned error halts the engine.
	OnRound func(round uint64) error
	// OnStop runs once when the loop exits, with the halting error if any.
	OnStop func(round uint64, err error)
}

// NewEngine creates an engine that runs the given number of rounds.
func NewEngine(maxRounds uint64) *Engine {
	return &Engine{MaxRounds: maxRounds}
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run steps rounds until MaxRounds is reached, Stop is called, or a round
// fails. Rounds never overlap.
func (e *Engine) Run() error {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "round", e.Round, "max_rounds", e.MaxRounds)

	var err error
	for e.running.Load() {
		if e.MaxRounds > 0 && e.Round >= e.MaxRounds {
			break
		}
		if err = e.step(); err != nil {
			slog.Error("round failed", "round", e.Round+1, "error", err)
			break
		}
	}

	slog.Info("simulation engine stopped", "round", e.Round)
	if e.OnStop != nil {
		e.OnStop(e.Round, err)
	}
	return err
}

// Stop halts the loop after the current round.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step advances the simulation by one round.
func (e *Engine) step() error {
	next := e.Round + 1
	if e.OnRound != nil {
		if err := e.OnRound(next); err != nil {
			return err
		}
	}
	e.Round = next
	return nil
}
