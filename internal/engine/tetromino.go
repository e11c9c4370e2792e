package engine

// Tetromino shapes. Each shape is a list of rotation states; each state is
// four [row, col] offsets from the piece origin.
var shapes = [][][4][2]int{
	// I
	{
		{{1, 0}, {1, 1}, {1, 2}, {1, 3}},
		{{0, 2}, {1, 2}, {2, 2}, {3, 2}},
	},
	// O
	{
		{{0, 1}, {0, 2}, {1, 1}, {1, 2}},
	},
	// T
	{
		{{0, 1}, {1, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {1, 2}, {2, 1}},
		{{1, 0}, {1, 1}, {1, 2}, {2, 1}},
		{{0, 1}, {1, 0}, {1, 1}, {2, 1}},
	},
	// S
	{
		{{0, 1}, {0, 2}, {1, 0}, {1, 1}},
		{{0, 1}, {1, 1}, {1, 2}, {2, 2}},
	},
	// Z
	{
		{{0, 0}, {0, 1}, {1, 1}, {1, 2}},
		{{0, 2}, {1, 1}, {1, 2}, {2, 1}},
	},
	// J
	{
		{{0, 0}, {1, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {0, 2}, {1, 1}, {2, 1}},
		{{1, 0}, {1, 1}, {1, 2}, {2, 2}},
		{{0, 1}, {1, 1}, {2, 0}, {2, 1}},
	},
	// L
	{
		{{0, 2}, {1, 0}, {1, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {2, 1}, {2, 2}},
		{{1, 0}, {1, 1}, {1, 2}, {2, 0}},
		{{0, 0}, {0, 1}, {1, 1}, {2, 1}},
	},
}

// NumShapes is the size of the tetromino alphabet
var NumShapes = len(shapes)

// piece is a falling tetromino instance
type piece struct {
	shape int
	rot   int
	row   int
	col   int
}

// cells returns the piece's absolute board coordinates
func (p piece) cells() [4][2]int {
	var out [4][2]int
	for i, offset := range shapes[p.shape][p.rot] {
		out[i] = [2]int{p.row + offset[0], p.col + offset[1]}
	}
	return out
}

// rotated returns the piece advanced to its next rotation state
func (p piece) rotated() piece {
	p.rot = (p.rot + 1) % len(shapes[p.shape])
	return p
}
