package model

// MatchID identifies one authoritative match instance
type MatchID string

// Seat is one of the two fixed match roles
type Seat int

const (
	SeatP1 Seat = iota
	SeatP2
)

// Role returns the wire name of the seat ("P1" / "P2")
func (s Seat) Role() string {
	if s == SeatP1 {
		return "P1"
	}
	return "P2"
}

// Other returns the opposing seat
func (s Seat) Other() Seat {
	if s == SeatP1 {
		return SeatP2
	}
	return SeatP1
}

// WinnerDraw is the winner value recorded when both seats top out in the
// same tick.
const WinnerDraw = "DRAW"

// SeatResult is the per-seat outcome included in GAME_OVER and the GameLog
type SeatResult struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
	Lines  int    `json:"lines"`
}

// GameLog is the write-once settlement record of one completed match
type GameLog struct {
	MatchID string       `json:"matchid"`
	Users   []string     `json:"users"`
	Results []SeatResult `json:"results"`
	Winner  string       `json:"winner"`
}
