package bot

import (
	"errors"
	"math/rand/v2"
	"testing"

	"ctchen222/tictactoe-core/internal/game"
)

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		check   func(Strategy) bool
	}{
		{name: "Default is minimax", input: "", check: func(s Strategy) bool { _, ok := s.(*Minimax); return ok }},
		{name: "Minimax", input: StrategyMinimax, check: func(s Strategy) bool { _, ok := s.(*Minimax); return ok }},
		{name: "Random", input: StrategyRandom, check: func(s Strategy) bool { _, ok := s.(*Random); return ok }},
		{name: "Unknown", input: "medium", wantErr: ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStrategy(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewStrategy(%q) error got = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStrategy(%q) unexpected error: %v", tt.input, err)
			}
			if !tt.check(s) {
				t.Errorf("NewStrategy(%q) returned %T", tt.input, s)
			}
		})
	}
}

func TestMinimaxChooseMove(t *testing.T) {
	board := game.Board{X, X, E, O, O, E, E, E, E}
	m := &Minimax{}
	if got := m.ChooseMove(board, X); got != 2 {
		t.Errorf("Minimax.ChooseMove() got %d, want 2", got)
	}
	if got := m.ChooseMove(board, O); got != 2 && got != 5 {
		t.Errorf("Minimax.ChooseMove() for O got %d, want a winning cell", got)
	}
}

func TestRandomChooseMove(t *testing.T) {
	t.Run("Only one spot left", func(t *testing.T) {
		board := game.Board{X, O, X, O, X, O, X, E, O}
		if got := NewRandom(nil).ChooseMove(board, X); got != 7 {
			t.Errorf("Random should pick the only available spot 7, got %d", got)
		}
	})

	t.Run("Always an empty cell", func(t *testing.T) {
		board := game.Board{X, E, O, E, X, E, E, O, E}
		r := NewRandom(rand.New(rand.NewPCG(1, 2)))
		seen := make(map[int]bool)
		for range 200 {
			got := r.ChooseMove(board, O)
			if !game.ValidIndex(got) || board[got] != E {
				t.Fatalf("Random returned occupied or invalid cell %d", got)
			}
			seen[got] = true
		}
		if len(seen) < 2 {
			t.Errorf("Random picked a single cell over 200 draws: %v", seen)
		}
	})

	t.Run("Full board", func(t *testing.T) {
		board := game.Board{X, O, X, X, O, O, O, X, X}
		if got := NewRandom(nil).ChooseMove(board, X); got != -1 {
			t.Errorf("Random on a full board should return -1, got %d", got)
		}
	})
}
