// Package engine provides the per-seat board simulation. The game service
// treats it as an injectable component: two engines constructed with the same
// seed produce identical piece sequences, so feeding them identical inputs
// yields identical snapshots.
package engine

import "github.com/franbrizuelab/NPHW2/internal/model"

// Engine is the fixed operation set the game service drives
type Engine interface {
	MoveLeft()
	MoveRight()
	Rotate()
	SoftDrop()
	HardDrop()

	// Tick advances gravity by one interval
	Tick()

	// Snapshot serializes the seat's complete visible state
	Snapshot() model.SeatState

	// Over reports whether the board has topped out
	Over() bool

	Score() int
	Lines() int
}

// Factory constructs an engine from a match seed
type Factory func(seed int64) Engine
