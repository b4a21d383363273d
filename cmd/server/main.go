package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/tictactoe-core/internal/api/controller"
	"ctchen222/tictactoe-core/internal/bot"
	"ctchen222/tictactoe-core/internal/config"
	"ctchen222/tictactoe-core/internal/hub"
	"ctchen222/tictactoe-core/internal/logger"
	"ctchen222/tictactoe-core/internal/score"
	"ctchen222/tictactoe-core/internal/server"
	"ctchen222/tictactoe-core/internal/session"
	"ctchen222/tictactoe-core/internal/telemetry"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	providers, err := telemetry.Init(ctx, telemetry.Options{
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		StdoutTraces: cfg.Telemetry.StdoutTraces,
	})
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(logger.Options{Level: cfg.Level(), Provider: providers.Logger})
	if cfg.Level() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	strategy, err := bot.NewStrategy(cfg.Game.Strategy)
	if err != nil {
		log.Fatalf("failed to create bot strategy: %v", err)
	}

	game, err := session.New(session.Options{
		Mode:          score.Mode(cfg.Game.DefaultMode),
		Strategy:      strategy,
		ComputerDelay: cfg.Game.ComputerDelay,
	})
	if err != nil {
		log.Fatalf("failed to create game session: %v", err)
	}
	defer game.Close()

	h := hub.NewHub(game)
	go h.Run(ctx)

	srv := server.NewServer(h, controller.NewGameController(game))

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		slog.Info("http server started", "http.addr", cfg.HTTP.Addr, "session.id", game.ID, "game.mode", cfg.Game.DefaultMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exiting")
}
