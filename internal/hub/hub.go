package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"ctchen222/tictactoe-core/internal/session"
	"ctchen222/tictactoe-core/pkg/proto"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const sendBuffer = 16

var tracer = otel.Tracer("hub")

// Hub pushes session snapshots to every connected view and feeds their
// commands back into the session. The run loop owns the client set.
type Hub struct {
	game *session.Session

	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	done       chan struct{}

	connected atomic.Int64
}

type directMessage struct {
	client *Client
	msg    *proto.ServerToClientMessage
}

// NewHub creates a hub for s. Call Run before serving connections.
func NewHub(s *session.Session) *Hub {
	return &Hub{
		game:       s,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
	}
}

// Connected returns the number of registered clients.
func (h *Hub) Connected() int {
	return int(h.connected.Load())
}

// Run processes registrations and snapshot broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	snapshots, unsubscribe := h.game.Subscribe(ctx)
	defer func() { unsubscribe() }()

	clients := make(map[*Client]struct{})
	defer func() {
		for c := range clients {
			close(c.send)
		}
		h.connected.Store(0)
	}()

	drop := func(c *Client) {
		if _, ok := clients[c]; !ok {
			return
		}
		delete(clients, c)
		close(c.send)
		h.connected.Store(int64(len(clients)))
	}

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients[c] = struct{}{}
			h.connected.Store(int64(len(clients)))
			slog.InfoContext(ctx, "client connected", "client.id", c.ID, "clients", len(clients))
			snap := h.game.Snapshot()
			c.version = snap.Version
			if !c.enqueue(ctx, proto.NewSnapshotMessage(snap)) {
				drop(c)
			}

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				drop(c)
				slog.InfoContext(ctx, "client disconnected", "client.id", c.ID, "clients", len(clients))
			}

		case d := <-h.direct:
			if _, ok := clients[d.client]; ok && !d.client.enqueue(ctx, d.msg) {
				drop(d.client)
			}

		case snap, ok := <-snapshots:
			if !ok {
				// The session drops subscribers that fall behind. Catch up
				// with the current state unless the session itself is gone.
				if ctx.Err() != nil || h.game.Closed() {
					slog.WarnContext(ctx, "session subscription ended, stopping hub")
					return
				}
				slog.WarnContext(ctx, "hub fell behind the session, resubscribing")
				snapshots, unsubscribe = h.game.Subscribe(ctx)
				snap = h.game.Snapshot()
			}
			h.broadcast(ctx, clients, snap, drop)
		}
	}
}

func (h *Hub) broadcast(ctx context.Context, clients map[*Client]struct{}, snap session.Snapshot, drop func(*Client)) {
	ctx, span := tracer.Start(ctx, "hub.broadcast", trace.WithAttributes(
		attribute.String("session.id", snap.SessionID),
		attribute.Int("clients", len(clients)),
	))
	defer span.End()

	msg := proto.NewSnapshotMessage(snap)
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling snapshot", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling snapshot")
		return
	}

	for c := range clients {
		// A client registered after snap was taken already has it or newer.
		if snap.Version <= c.version {
			continue
		}
		select {
		case c.send <- data:
			c.version = snap.Version
		default:
			slog.WarnContext(ctx, "dropping slow client", "client.id", c.ID)
			drop(c)
		}
	}
}

// reply queues msg for c alone. It is a no-op once the hub has stopped.
func (h *Hub) reply(ctx context.Context, c *Client, msg *proto.ServerToClientMessage) {
	select {
	case h.direct <- directMessage{client: c, msg: msg}:
	case <-h.done:
	case <-ctx.Done():
	}
}
