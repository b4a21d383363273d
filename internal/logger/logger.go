package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
)

const instrumentationName = "ctchen222/tictactoe-core"

// FanoutHandler is a slog.Handler that dispatches records to multiple handlers.
type FanoutHandler struct {
	handlers []slog.Handler
}

func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

// Enabled is true if any underlying handler is enabled for level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes r to every handler enabled for its level. A failing handler
// does not stop the others.
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return NewFanoutHandler(next...)
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return NewFanoutHandler(next...)
}

type Options struct {
	Level slog.Level
	// Output defaults to stdout.
	Output io.Writer
	// Provider receives records through the otelslog bridge. Nil means the
	// global logger provider.
	Provider log.LoggerProvider
}

// New builds a logger writing to the console and to OpenTelemetry.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var bridgeOpts []otelslog.Option
	if opts.Provider != nil {
		bridgeOpts = append(bridgeOpts, otelslog.WithLoggerProvider(opts.Provider))
	}
	otelHandler := otelslog.NewHandler(instrumentationName, bridgeOpts...)

	consoleHandler := slog.NewTextHandler(out, &slog.HandlerOptions{
		AddSource: opts.Level <= slog.LevelDebug,
		Level:     opts.Level,
	})

	return slog.New(NewFanoutHandler(consoleHandler, otelHandler))
}

// Init installs New(opts) as the default slog logger.
func Init(opts Options) {
	slog.SetDefault(New(opts))
}
