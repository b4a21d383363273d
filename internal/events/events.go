package events

import (
	"context"
	"errors"
	"fmt"

	"ctchen222/tictactoe-core/internal/score"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

var ErrUnknownEvent = errors.New("unknown event")

type Type string

// Event types a view can raise.
const (
	Place      Type = "place"
	Restart    Type = "restart"
	SelectMode Type = "mode"
	ResetAll   Type = "reset"
)

// Event is a user intent raised by a view. Position is read only for Place
// and Mode only for SelectMode.
type Event struct {
	Type     Type
	Position int
	Mode     score.Mode
}

// Game is the part of the game session that events drive.
type Game interface {
	PlaceMark(ctx context.Context, index int) error
	Restart(ctx context.Context)
	SelectMode(ctx context.Context, mode score.Mode) error
	ResetAll(ctx context.Context)
}

// Apply dispatches e to g.
func Apply(ctx context.Context, g Game, e Event) error {
	ctx, span := tracer.Start(ctx, "events.Apply", trace.WithAttributes(
		attribute.String("event.type", string(e.Type)),
	))
	defer span.End()

	var err error
	switch e.Type {
	case Place:
		span.SetAttributes(attribute.Int("move.index", e.Position))
		err = g.PlaceMark(ctx, e.Position)
	case Restart:
		g.Restart(ctx)
	case SelectMode:
		span.SetAttributes(attribute.String("game.mode", string(e.Mode)))
		err = g.SelectMode(ctx, e.Mode)
	case ResetAll:
		g.ResetAll(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
