package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/tictactoe-core/internal/events"
	"ctchen222/tictactoe-core/internal/score"
	"ctchen222/tictactoe-core/internal/session"
	"ctchen222/tictactoe-core/internal/validator"
	"ctchen222/tictactoe-core/pkg/proto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var heartbeatInterval = 30 * time.Second

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Client is one connected view.
type Client struct {
	ID   string
	conn Connection
	send chan []byte

	// version of the last snapshot queued, owned by the hub run loop.
	version uint64
}

func newClient(conn Connection) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// enqueue reports false when the client cannot keep up.
func (c *Client) enqueue(ctx context.Context, msg *proto.ServerToClientMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "client.id", c.ID, "error", err)
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Serve registers conn and blocks until the connection fails, ctx is done or
// the hub stops. It closes conn before returning.
func (h *Hub) Serve(ctx context.Context, conn Connection) {
	c := newClient(conn)
	ctx, span := tracer.Start(ctx, "hub.Serve", trace.WithAttributes(
		attribute.String("client.id", c.ID),
	))
	defer span.End()

	if ctx.Err() != nil {
		conn.Close()
		return
	}
	// ReadMessage does not watch ctx; closing the connection unblocks it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-ctx.Done():
		conn.Close()
		return
	}

	go c.writePump()

	h.readPump(ctx, c)

	select {
	case h.unregister <- c:
	case <-h.done:
	}
	conn.Close()
}

// writePump is the only writer of c.conn. It exits when the hub closes
// c.send.
func (c *Client) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn("error writing message to client", "client.id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps commands from the connection into the session.
func (h *Hub) readPump(ctx context.Context, c *Client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "client connection error", "client.id", c.ID, "error", err)
			}
			return
		}
		h.handleMessage(ctx, c, raw)
	}
}

// handleMessage decodes one client message and applies it. Failures are
// reported to the sender only.
func (h *Hub) handleMessage(ctx context.Context, c *Client, raw []byte) {
	ctx, span := tracer.Start(ctx, "hub.handleMessage", trace.WithAttributes(
		attribute.String("client.id", c.ID),
	))
	defer span.End()

	event, err := decode(raw)
	if err != nil {
		slog.WarnContext(ctx, "invalid message from client", "client.id", c.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		h.reply(ctx, c, proto.NewErrorMessage(err.Error()))
		return
	}
	span.SetAttributes(attribute.String("message.type", string(event.Type)))

	if err := events.Apply(ctx, h.game, event); err != nil {
		if session.IsRejected(err) {
			span.SetAttributes(attribute.Bool("move.valid", false))
		} else {
			slog.ErrorContext(ctx, "command failed", "client.id", c.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Command failed")
		}
		h.reply(ctx, c, proto.NewErrorMessage(err.Error()))
	}
}

var errMissingField = errors.New("missing field")

func decode(raw []byte) (events.Event, error) {
	var msg proto.ClientToServerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return events.Event{}, fmt.Errorf("error unmarshalling message: %w", err)
	}
	if err := validator.GetValidator().Struct(msg); err != nil {
		return events.Event{}, err
	}

	e := events.Event{Type: events.Type(msg.Type)}
	switch msg.Type {
	case proto.TypePlace:
		if msg.Position == nil {
			return events.Event{}, fmt.Errorf("%w: position", errMissingField)
		}
		e.Position = *msg.Position
	case proto.TypeMode:
		if msg.Mode == "" {
			return events.Event{}, fmt.Errorf("%w: mode", errMissingField)
		}
		e.Mode = score.Mode(msg.Mode)
	}
	return e, nil
}
