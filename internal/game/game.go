package game

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Board boundaries
	BoardSize = 9
	BorderMin = 0
	BorderMax = BoardSize - 1
)

// Opponent returns the other side's mark. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// IsPlayer reports whether m is X or O.
func (m PlayerMark) IsPlayer() bool {
	return m == PlayerX || m == PlayerO
}

// Board is the 3x3 grid stored row-major: index = row*3 + col.
type Board [BoardSize]PlayerMark

// ValidIndex reports whether i addresses a cell of the board.
func ValidIndex(i int) bool {
	return i >= BorderMin && i <= BorderMax
}

// EmptyCells returns the indexes of all empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// IsFull reports whether no empty cell is left.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// Rows converts the board to a slice of rows for renderers that think in 3x3.
func (b Board) Rows() [][]PlayerMark {
	rows := make([][]PlayerMark, 3)
	for r := range [3]int{} {
		rows[r] = make([]PlayerMark, 3)
		copy(rows[r], b[r*3:r*3+3])
	}
	return rows
}

// Count returns how many cells hold mark m.
func (b Board) Count(m PlayerMark) int {
	n := 0
	for _, cell := range b {
		if cell == m {
			n++
		}
	}
	return n
}
