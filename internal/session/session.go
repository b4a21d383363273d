package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe-core/internal/bot"
	"ctchen222/tictactoe-core/internal/game"
	"ctchen222/tictactoe-core/internal/score"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// The human always plays X; in single-player the computer plays O.
	humanMark    = game.PlayerX
	computerMark = game.PlayerO

	subscriberBuffer = 16
)

var (
	tracer = otel.Tracer("session")
	meter  = otel.Meter("session")

	gamesFinished, _ = meter.Int64Counter("games.finished",
		metric.WithDescription("Games that reached a won or drawn board"),
	)
	movesRejected, _ = meter.Int64Counter("moves.rejected",
		metric.WithDescription("Placements refused by the state machine"),
	)
)

// Placement rejections. They never mutate state and callers may ignore them.
var (
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell already occupied")
	ErrGameOver     = errors.New("game already finished")
	ErrNotYourTurn  = errors.New("not your turn")
)

var (
	ErrUnknownMode = errors.New("unknown game mode")
	ErrClosed      = errors.New("session closed")
)

// IsRejected reports whether err is a user-input rejection rather than a
// failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidCell) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrGameOver) ||
		errors.Is(err, ErrNotYourTurn)
}

// Options configures a Session. Zero values pick two-player mode, the minimax
// strategy, a fresh ledger and a synchronous computer move.
type Options struct {
	Mode          score.Mode
	Strategy      bot.Strategy
	Ledger        *score.Ledger
	ComputerDelay time.Duration
}

// Snapshot is a read-only copy of the session for renderers.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Version   uint64          `json:"version"`
	Board     game.Board      `json:"board"`
	Turn      game.PlayerMark `json:"turn"`
	Outcome   game.Outcome    `json:"outcome"`
	Mode      score.Mode      `json:"mode"`
	Scores    score.Scores    `json:"scores"`
	Pending   bool            `json:"computer_pending"`
}

// Session is the game state machine. It exclusively owns the board, the turn
// and the mode; every transition is serialized on mu.
type Session struct {
	ID string

	mu       sync.Mutex
	board    game.Board
	turn     game.PlayerMark
	mode     score.Mode
	ledger   *score.Ledger
	strategy bot.Strategy
	delay    time.Duration

	// pending is the scheduled computer move. generation is bumped whenever
	// the board is reset so a timer that already fired can tell it is stale.
	pending    *time.Timer
	generation uint64
	version    uint64

	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch   chan Snapshot
	done chan struct{}
}

// New creates a session with an empty board and X to move.
func New(opts Options) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = score.ModeTwoPlayer
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
	if opts.Strategy == nil {
		opts.Strategy = &bot.Minimax{}
	}
	if opts.Ledger == nil {
		opts.Ledger = score.NewLedger()
	}

	return &Session{
		ID:       uuid.NewString(),
		turn:     game.PlayerX,
		mode:     opts.Mode,
		ledger:   opts.Ledger,
		strategy: opts.Strategy,
		delay:    opts.ComputerDelay,
		subs:     make(map[*subscriber]struct{}),
	}, nil
}

// PlaceMark places the current turn's mark on index. In single-player mode the
// computer answers right away, or after the configured delay.
func (s *Session) PlaceMark(ctx context.Context, index int) error {
	ctx, span := tracer.Start(ctx, "session.PlaceMark", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.Int("move.index", index),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		span.SetStatus(codes.Error, "Session closed")
		return ErrClosed
	}

	if game.Evaluate(s.board).IsTerminal() {
		s.reject(ctx, span, index, ErrGameOver)
		return ErrGameOver
	}

	if s.mode == score.ModeSinglePlayer && (s.pending != nil || s.turn != humanMark) {
		s.reject(ctx, span, index, ErrNotYourTurn)
		return ErrNotYourTurn
	}

	if err := s.applyLocked(ctx, index); err != nil {
		s.reject(ctx, span, index, err)
		return err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	if s.computerToMoveLocked() {
		s.scheduleComputerLocked(ctx)
	}

	s.notifyLocked()
	return nil
}

func (s *Session) reject(ctx context.Context, span trace.Span, index int, err error) {
	slog.DebugContext(ctx, "placement rejected", "session.id", s.ID, "move.index", index, "reason", err)
	span.SetAttributes(attribute.Bool("move.valid", false))
	span.SetStatus(codes.Error, err.Error())
	movesRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", err.Error())))
}

// applyLocked is the single placement path shared by human and computer
// plies.
func (s *Session) applyLocked(ctx context.Context, index int) error {
	if game.Evaluate(s.board).IsTerminal() {
		return ErrGameOver
	}
	if !game.ValidIndex(index) {
		return fmt.Errorf("%w: %d", ErrInvalidCell, index)
	}
	if s.board[index] != game.None {
		return ErrCellOccupied
	}

	mark := s.turn
	s.board[index] = mark
	s.turn = mark.Opponent()
	s.version++

	outcome := game.Evaluate(s.board)
	if outcome.IsTerminal() {
		s.finishLocked(ctx, outcome)
	}
	return nil
}

func (s *Session) finishLocked(ctx context.Context, outcome game.Outcome) {
	s.ledger.Record(s.mode, outcome)

	result := string(outcome.Status)
	if outcome.Status == game.StatusWon {
		result = string(outcome.Winner)
	}
	gamesFinished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("game.mode", string(s.mode)),
		attribute.String("game.result", result),
	))
	slog.InfoContext(ctx, "game finished", "session.id", s.ID, "game.mode", s.mode, "game.result", result)
}

func (s *Session) computerToMoveLocked() bool {
	return s.mode == score.ModeSinglePlayer &&
		s.turn == computerMark &&
		!game.Evaluate(s.board).IsTerminal()
}

func (s *Session) scheduleComputerLocked(ctx context.Context) {
	if s.delay <= 0 {
		s.computerMoveLocked(ctx)
		return
	}

	gen := s.generation
	link := trace.LinkFromContext(ctx)
	s.pending = time.AfterFunc(s.delay, func() {
		ctx, span := tracer.Start(context.Background(), "session.deferredComputerMove", trace.WithLinks(link))
		defer span.End()

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || gen != s.generation {
			slog.DebugContext(ctx, "discarding stale computer move", "session.id", s.ID)
			span.SetAttributes(attribute.Bool("move.stale", true))
			return
		}
		s.pending = nil
		s.computerMoveLocked(ctx)
		s.notifyLocked()
	})
}

func (s *Session) computerMoveLocked(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.computerMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	index := s.strategy.ChooseMove(s.board, computerMark)
	span.SetAttributes(attribute.Int("move.index", index))

	if err := s.applyLocked(ctx, index); err != nil {
		slog.ErrorContext(ctx, "computer produced an illegal move", "session.id", s.ID, "move.index", index, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Computer produced an illegal move")
		return
	}
	slog.DebugContext(ctx, "computer placed mark", "session.id", s.ID, "move.index", index)
}

// cancelPendingLocked discards a scheduled computer move, whether or not its
// timer already fired.
func (s *Session) cancelPendingLocked() {
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Session) restartLocked() {
	s.cancelPendingLocked()
	s.board = game.Board{}
	s.turn = game.PlayerX
	s.version++
}

// Restart empties the board and gives X the move. Scores are kept.
func (s *Session) Restart(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.Restart", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.restartLocked()
	slog.InfoContext(ctx, "game restarted", "session.id", s.ID)
	s.notifyLocked()
}

// SelectMode switches mode and restarts the game.
func (s *Session) SelectMode(ctx context.Context, mode score.Mode) error {
	ctx, span := tracer.Start(ctx, "session.SelectMode", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("game.mode", string(mode)),
	))
	defer span.End()

	if !mode.Valid() {
		err := fmt.Errorf("%w: %q", ErrUnknownMode, mode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unknown game mode")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = mode
	s.restartLocked()
	slog.InfoContext(ctx, "mode selected", "session.id", s.ID, "game.mode", mode)
	s.notifyLocked()
	return nil
}

// ResetAll zeroes the scores and restarts the game. The mode is kept.
func (s *Session) ResetAll(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.ResetAll", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Reset()
	s.restartLocked()
	slog.InfoContext(ctx, "scores reset", "session.id", s.ID)
	s.notifyLocked()
}

// Board returns a copy of the current board.
func (s *Session) Board() game.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// Turn returns the mark placed by the next accepted move.
func (s *Session) Turn() game.PlayerMark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Outcome evaluates the current board.
func (s *Session) Outcome() game.Outcome {
	return game.Evaluate(s.Board())
}

func (s *Session) Mode() score.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Scores() score.Scores {
	return s.ledger.Snapshot()
}

// Pending reports whether a computer move is scheduled.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Snapshot returns a consistent copy of everything a renderer needs.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID: s.ID,
		Version:   s.version,
		Board:     s.board,
		Turn:      s.turn,
		Outcome:   game.Evaluate(s.board),
		Mode:      s.mode,
		Scores:    s.ledger.Snapshot(),
		Pending:   s.pending != nil,
	}
}

// Subscribe returns a channel receiving a snapshot after every state change.
// A subscriber that falls behind is dropped and its channel closed. The
// subscription ends when ctx is done or the returned func is called.
func (s *Session) Subscribe(ctx context.Context) (<-chan Snapshot, func()) {
	sub := &subscriber{
		ch:   make(chan Snapshot, subscriberBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.dropLocked(sub)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.done:
		}
	}()

	return sub.ch, unsubscribe
}

func (s *Session) dropLocked(sub *subscriber) {
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.ch)
		close(sub.done)
	}
}

func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for sub := range s.subs {
		select {
		case sub.ch <- snap:
		default:
			slog.Warn("dropping slow snapshot subscriber", "session.id", s.ID)
			s.dropLocked(sub)
		}
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels any pending computer move and ends all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancelPendingLocked()
	for sub := range s.subs {
		s.dropLocked(sub)
	}
}
