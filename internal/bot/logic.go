package bot

import (
	"fmt"
	"math"

	"ctchen222/tictactoe-core/internal/game"
)

// Terminal scores from O's point of view. They are not depth adjusted, so the
// search is indifferent between a fast and a slow win of equal value.
const (
	ScoreOWins = 10
	ScoreXWins = -10
	ScoreDraw  = 0
)

// SearchResult is the move chosen by BestMove and the score it propagates.
type SearchResult struct {
	Index int `json:"index"`
	Score int `json:"score"`
	// Nodes is the number of positions visited to reach the decision.
	Nodes int `json:"nodes"`
}

// BestMove runs an exhaustive minimax search for side on board. O maximises,
// X minimises and the lowest index wins ties.
//
// The board must have at least one empty cell and must not already be won;
// BestMove panics otherwise since that is a caller bug.
func BestMove(board game.Board, side game.PlayerMark) SearchResult {
	if !side.IsPlayer() {
		panic(fmt.Sprintf("bot: BestMove called for invalid side %q", side))
	}
	if game.Evaluate(board).IsTerminal() {
		panic("bot: BestMove called on a finished board")
	}

	nodes := 0
	index, score := minimax(&board, side, &nodes)
	return SearchResult{Index: index, Score: score, Nodes: nodes}
}

// minimax mutates board in place and restores every cell it touches.
func minimax(board *game.Board, side game.PlayerMark, nodes *int) (index, score int) {
	*nodes++

	outcome := game.Evaluate(*board)
	switch outcome.Status {
	case game.StatusWon:
		if outcome.Winner == game.PlayerO {
			return -1, ScoreOWins
		}
		return -1, ScoreXWins
	case game.StatusDraw:
		return -1, ScoreDraw
	}

	maximise := side == game.PlayerO
	best := math.MaxInt
	if maximise {
		best = math.MinInt
	}
	index = -1

	for i, cell := range board {
		if cell != game.None {
			continue
		}

		board[i] = side
		_, s := minimax(board, side.Opponent(), nodes)
		board[i] = game.None

		if (maximise && s > best) || (!maximise && s < best) {
			best = s
			index = i
		}
	}

	return index, best
}
