package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"ctchen222/tictactoe-core/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

//go:generate mockgen -source=strategy.go -destination=mocks/mock_strategy.go -package=mocks

const (
	StrategyMinimax = "minimax"
	StrategyRandom  = "random"
)

var ErrUnknownStrategy = errors.New("unknown bot strategy")

var (
	meter = otel.Meter("bot")

	searchNodes, _ = meter.Int64Histogram("bot.search.nodes",
		metric.WithDescription("Positions visited by a single minimax search"),
	)
)

// Strategy picks the cell the computer places its mark on.
// Implementations must only return indexes of empty cells.
type Strategy interface {
	ChooseMove(board game.Board, side game.PlayerMark) int
}

// NewStrategy returns the strategy registered under name. An empty name
// selects the optimal minimax player.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyMinimax, "":
		return &Minimax{}, nil
	case StrategyRandom:
		return NewRandom(nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Minimax plays optimally using BestMove.
type Minimax struct{}

// ChooseMove implements Strategy.
func (m *Minimax) ChooseMove(board game.Board, side game.PlayerMark) int {
	res := BestMove(board, side)
	searchNodes.Record(context.Background(), int64(res.Nodes),
		metric.WithAttributes(attribute.String("bot.side", string(side))),
	)
	return res.Index
}

// Random places on a uniformly random empty cell.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random strategy. A nil rng uses the global source.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

// ChooseMove implements Strategy. It returns -1 on a full board.
func (r *Random) ChooseMove(board game.Board, _ game.PlayerMark) int {
	available := board.EmptyCells()
	if len(available) == 0 {
		return -1
	}

	if r.rng == nil {
		return available[rand.IntN(len(available))]
	}
	return available[r.rng.IntN(len(available))]
}
