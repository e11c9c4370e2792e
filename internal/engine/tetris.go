package engine

import (
	"math/rand"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

// Board dimensions
const (
	BoardRows = 20
	BoardCols = 10
)

// spawnRow/spawnCol is where new pieces enter the board
const (
	spawnRow = 0
	spawnCol = 3
)

// lineScores[n] is the score for clearing n lines at once
var lineScores = [5]int{0, 100, 300, 500, 800}

// Drop bonuses
const (
	softDropBonus = 1
	hardDropBonus = 2
)

// Tetris is the deterministic seeded implementation of Engine.
// It is not safe for concurrent use; inside a match only the loop thread
// touches it.
type Tetris struct {
	rng   *rand.Rand
	board [BoardRows][BoardCols]int
	cur   piece
	next  piece
	score int
	lines int
	over  bool
}

var _ Engine = (*Tetris)(nil)

// New creates a seeded engine with the first two pieces drawn
func New(seed int64) *Tetris {
	t := &Tetris{rng: rand.New(rand.NewSource(seed))}
	t.cur = t.draw()
	t.next = t.draw()
	return t
}

// NewEngine is the Factory for the production engine
func NewEngine(seed int64) Engine {
	return New(seed)
}

func (t *Tetris) draw() piece {
	return piece{shape: t.rng.Intn(NumShapes), row: spawnRow, col: spawnCol}
}

// collides reports whether the piece overlaps walls, floor, or locked cells
func (t *Tetris) collides(p piece) bool {
	for _, c := range p.cells() {
		row, col := c[0], c[1]
		if row < 0 || row >= BoardRows || col < 0 || col >= BoardCols {
			return true
		}
		if t.board[row][col] != 0 {
			return true
		}
	}
	return false
}

// tryMove applies the candidate piece if it fits
func (t *Tetris) tryMove(p piece) bool {
	if t.over || t.collides(p) {
		return false
	}
	t.cur = p
	return true
}

// MoveLeft shifts the falling piece one column left
func (t *Tetris) MoveLeft() {
	p := t.cur
	p.col--
	t.tryMove(p)
}

// MoveRight shifts the falling piece one column right
func (t *Tetris) MoveRight() {
	p := t.cur
	p.col++
	t.tryMove(p)
}

// Rotate advances the falling piece to its next rotation state
func (t *Tetris) Rotate() {
	t.tryMove(t.cur.rotated())
}

// SoftDrop moves the piece down one row, scoring a small bonus
func (t *Tetris) SoftDrop() {
	p := t.cur
	p.row++
	if t.tryMove(p) {
		t.score += softDropBonus
	}
}

// HardDrop slams the piece to the bottom and locks it immediately
func (t *Tetris) HardDrop() {
	if t.over {
		return
	}
	dropped := 0
	p := t.cur
	for {
		candidate := p
		candidate.row++
		if t.collides(candidate) {
			break
		}
		p = candidate
		dropped++
	}
	t.cur = p
	t.score += hardDropBonus * dropped
	t.lock()
}

// Tick applies one gravity step: descend, or lock and spawn
func (t *Tetris) Tick() {
	if t.over {
		return
	}
	p := t.cur
	p.row++
	if !t.tryMove(p) {
		t.lock()
	}
}

// lock merges the falling piece into the board, clears full lines, and
// spawns the next piece. Topping out on spawn ends the game.
func (t *Tetris) lock() {
	for _, c := range t.cur.cells() {
		t.board[c[0]][c[1]] = t.cur.shape + 1
	}
	t.clearFullLines()

	t.cur = t.next
	t.next = t.draw()
	if t.collides(t.cur) {
		t.over = true
	}
}

func (t *Tetris) clearFullLines() {
	cleared := 0
	for row := BoardRows - 1; row >= 0; row-- {
		full := true
		for col := 0; col < BoardCols; col++ {
			if t.board[row][col] == 0 {
				full = false
				break
			}
		}
		if !full {
			continue
		}
		cleared++
		// Shift everything above down by one
		for r := row; r > 0; r-- {
			t.board[r] = t.board[r-1]
		}
		t.board[0] = [BoardCols]int{}
		row++ // re-check the same row after the shift
	}
	if cleared > 0 {
		t.lines += cleared
		t.score += lineScores[cleared]
	}
}

// Over reports whether the board has topped out
func (t *Tetris) Over() bool { return t.over }

// Score returns the accumulated score
func (t *Tetris) Score() int { return t.score }

// Lines returns the number of cleared lines
func (t *Tetris) Lines() int { return t.lines }

// Snapshot serializes the board, falling piece, and next-piece preview
func (t *Tetris) Snapshot() model.SeatState {
	board := make([][]int, BoardRows)
	for r := 0; r < BoardRows; r++ {
		board[r] = make([]int, BoardCols)
		copy(board[r], t.board[r][:])
	}

	state := model.SeatState{
		Board:    board,
		Score:    t.score,
		Lines:    t.lines,
		GameOver: t.over,
	}

	if !t.over {
		cells := t.cur.cells()
		cur := &model.PieceState{ShapeID: t.cur.shape, Blocks: make([][2]int, len(cells))}
		copy(cur.Blocks, cells[:])
		state.CurrentPiece = cur
	}

	// Preview blocks are origin-relative so the client can draw them anywhere
	offsets := shapes[t.next.shape][t.next.rot]
	next := &model.PieceState{ShapeID: t.next.shape, Blocks: make([][2]int, len(offsets))}
	copy(next.Blocks, offsets[:])
	state.NextPiece = next

	return state
}
