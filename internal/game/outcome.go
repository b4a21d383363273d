package game

// Line is one index triple that wins the game when uniformly marked.
type Line [3]int

// Lines holds every winning line: rows, then columns, then diagonals.
// Evaluate reports the first match in this order.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// columns
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diagonals
	{0, 4, 8}, {2, 4, 6},
}

// Status is the coarse state of a board.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusDraw       Status = "draw"
)

// Outcome is the result of evaluating a board. Winner and Line are only set
// when Status is StatusWon.
type Outcome struct {
	Status Status     `json:"status"`
	Winner PlayerMark `json:"winner,omitempty"`
	Line   *Line      `json:"line,omitempty"`
}

// IsTerminal reports whether no further placements are accepted.
func (o Outcome) IsTerminal() bool {
	return o.Status == StatusWon || o.Status == StatusDraw
}

// InProgress is the outcome of any board that is neither won nor full.
var InProgress = Outcome{Status: StatusInProgress}

// Evaluate determines whether a line is complete, the board is drawn, or the
// game continues.
func Evaluate(b Board) Outcome {
	for i := range Lines {
		line := Lines[i]
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return Outcome{Status: StatusWon, Winner: a, Line: &line}
		}
	}

	if b.IsFull() {
		return Outcome{Status: StatusDraw}
	}

	return InProgress
}
