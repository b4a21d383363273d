package score

import (
	"sync"

	"ctchen222/tictactoe-core/internal/game"
)

// Mode selects who plays O.
type Mode string

const (
	ModeTwoPlayer    Mode = "two_player"
	ModeSinglePlayer Mode = "single_player"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeTwoPlayer || m == ModeSinglePlayer
}

// Tally counts finished games for one mode. In single-player OWins are the
// computer's wins.
type Tally struct {
	XWins int `json:"x_wins"`
	OWins int `json:"o_wins"`
	Draws int `json:"draws"`
}

// Scores is a point-in-time copy of every tally.
type Scores struct {
	TwoPlayer    Tally `json:"two_player"`
	SinglePlayer Tally `json:"single_player"`
}

// Ledger keeps a separate tally per mode. Switching modes never clears it;
// only Reset does.
type Ledger struct {
	mu      sync.RWMutex
	tallies map[Mode]*Tally
}

// NewLedger returns a ledger with all counters at zero.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.Reset()
	return l
}

// Record adds a finished game to the tally of mode. In-progress outcomes and
// unknown modes are ignored; it reports whether anything was counted.
func (l *Ledger) Record(m Mode, outcome game.Outcome) bool {
	if !m.Valid() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.tallies[m]
	switch outcome.Status {
	case game.StatusDraw:
		t.Draws++
	case game.StatusWon:
		switch outcome.Winner {
		case game.PlayerX:
			t.XWins++
		case game.PlayerO:
			t.OWins++
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// Reset zeroes every counter.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tallies = map[Mode]*Tally{
		ModeTwoPlayer:    {},
		ModeSinglePlayer: {},
	}
}

// Tally returns a copy of the counters for m.
func (l *Ledger) Tally(m Mode) Tally {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if t, ok := l.tallies[m]; ok {
		return *t
	}
	return Tally{}
}

// Snapshot returns a copy of all counters.
func (l *Ledger) Snapshot() Scores {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Scores{
		TwoPlayer:    *l.tallies[ModeTwoPlayer],
		SinglePlayer: *l.tallies[ModeSinglePlayer],
	}
}
