package model

// PieceState describes a tetromino for rendering. For the falling piece the
// blocks are absolute board coordinates; for the next-piece preview they are
// offsets relative to the piece origin.
type PieceState struct {
	ShapeID int      `json:"shape_id"`
	Blocks  [][2]int `json:"blocks"` // [row, col] pairs
}

// SeatState is one seat's complete visible state at a tick
type SeatState struct {
	Board        [][]int     `json:"board"` // 0 = empty, otherwise shape_id+1
	CurrentPiece *PieceState `json:"current_piece"`
	NextPiece    *PieceState `json:"next_piece"`
	Score        int         `json:"score"`
	Lines        int         `json:"lines"`
	GameOver     bool        `json:"game_over"`
}
