package engine

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type TetrisSuite struct {
	suite.Suite
}

func TestTetrisSuite(t *testing.T) {
	suite.Run(t, new(TetrisSuite))
}

func (s *TetrisSuite) TestSameSeedSameInputsProduceIdenticalSnapshots() {
	script := func(e Engine) {
		for i := 0; i < 30; i++ {
			switch i % 5 {
			case 0:
				e.MoveLeft()
			case 1:
				e.Rotate()
			case 2:
				e.MoveRight()
			case 3:
				e.SoftDrop()
			case 4:
				e.HardDrop()
			}
			e.Tick()
		}
	}

	a := New(42)
	b := New(42)
	script(a)
	script(b)

	s.Equal(a.Snapshot(), b.Snapshot())
	s.Equal(a.Score(), b.Score())
	s.Equal(a.Lines(), b.Lines())
	s.Equal(a.Over(), b.Over())
}

func (s *TetrisSuite) TestDifferentSeedsDiverge() {
	a := New(1)
	b := New(2)

	// Piece sequences differ eventually; hard-drop a handful of pieces and
	// compare the locked boards.
	for i := 0; i < 10; i++ {
		a.HardDrop()
		b.HardDrop()
	}
	s.NotEqual(a.Snapshot().Board, b.Snapshot().Board)
}

func (s *TetrisSuite) TestMoveLeftStopsAtWall() {
	t := New(7)
	for i := 0; i < BoardCols+2; i++ {
		t.MoveLeft()
	}
	for _, c := range t.cur.cells() {
		s.GreaterOrEqual(c[1], 0)
	}
}

func (s *TetrisSuite) TestMoveRightStopsAtWall() {
	t := New(7)
	for i := 0; i < BoardCols+2; i++ {
		t.MoveRight()
	}
	for _, c := range t.cur.cells() {
		s.Less(c[1], BoardCols)
	}
}

func (s *TetrisSuite) TestSoftDropScoresOnlyWhenMoving() {
	t := New(7)
	before := t.Score()
	t.SoftDrop()
	s.Equal(before+softDropBonus, t.Score())

	// Drop to the floor; further soft drops must not score.
	for i := 0; i < BoardRows+4; i++ {
		t.SoftDrop()
	}
	atFloor := t.Score()
	t.SoftDrop()
	s.Equal(atFloor, t.Score())
}

func (s *TetrisSuite) TestHardDropLocksPiece() {
	t := New(7)
	t.HardDrop()

	locked := 0
	for r := 0; r < BoardRows; r++ {
		for c := 0; c < BoardCols; c++ {
			if t.board[r][c] != 0 {
				locked++
			}
		}
	}
	s.Equal(4, locked)
	s.Positive(t.Score())
}

func (s *TetrisSuite) TestClearSingleLine() {
	t := New(7)
	for c := 0; c < BoardCols; c++ {
		t.board[BoardRows-1][c] = 1
	}

	t.clearFullLines()

	s.Equal(1, t.Lines())
	s.Equal(lineScores[1], t.Score())
	for c := 0; c < BoardCols; c++ {
		s.Zero(t.board[BoardRows-1][c])
	}
}

func (s *TetrisSuite) TestClearMultipleLinesShiftsStack() {
	t := New(7)
	// Two full bottom rows and one marker cell above them
	for c := 0; c < BoardCols; c++ {
		t.board[BoardRows-1][c] = 2
		t.board[BoardRows-2][c] = 2
	}
	t.board[BoardRows-3][4] = 5

	t.clearFullLines()

	s.Equal(2, t.Lines())
	s.Equal(lineScores[2], t.Score())
	// Marker fell two rows
	s.Equal(5, t.board[BoardRows-1][4])
	s.Zero(t.board[BoardRows-3][4])
}

func (s *TetrisSuite) TestTopOutSetsGameOver() {
	t := New(7)
	// Fill the spawn area so the next spawned piece collides
	for r := 0; r < 4; r++ {
		for c := 0; c < BoardCols; c++ {
			if c != 0 {
				t.board[r][c] = 1
			}
		}
	}
	t.lock()

	s.True(t.Over())
	s.True(t.Snapshot().GameOver)
}

func (s *TetrisSuite) TestOperationsAfterGameOverAreNoops() {
	t := New(7)
	t.over = true

	before := t.Snapshot()
	t.MoveLeft()
	t.Rotate()
	t.SoftDrop()
	t.HardDrop()
	t.Tick()

	s.Equal(before, t.Snapshot())
}

func (s *TetrisSuite) TestSnapshotShape() {
	t := New(7)
	snap := t.Snapshot()

	s.Len(snap.Board, BoardRows)
	s.Len(snap.Board[0], BoardCols)
	s.Require().NotNil(snap.CurrentPiece)
	s.Len(snap.CurrentPiece.Blocks, 4)
	s.Require().NotNil(snap.NextPiece)
	s.Len(snap.NextPiece.Blocks, 4)
	s.False(snap.GameOver)
}

func (s *TetrisSuite) TestSnapshotBoardIsACopy() {
	t := New(7)
	snap := t.Snapshot()
	snap.Board[0][0] = 99

	s.Zero(t.board[0][0])
}
