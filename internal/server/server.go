package server

import (
	"log/slog"
	"net/http"

	"ctchen222/tictactoe-core/internal/api/controller"
	"ctchen222/tictactoe-core/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "tic-tac-toe"

var tracer = otel.Tracer("server")

type Server struct {
	hub            *hub.Hub
	gameController *controller.GameController
	upgrader       websocket.Upgrader
	engine         *gin.Engine
}

func NewServer(h *hub.Hub, gameController *controller.GameController) *Server {
	s := &Server{
		hub:            h,
		gameController: gameController,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/ws", s.handleWebSocket)

	api := s.engine.Group("/api/game")
	{
		api.GET("", s.gameController.State)
		api.POST("/place", s.gameController.Place)
		api.POST("/restart", s.gameController.Restart)
		api.POST("/mode", s.gameController.SelectMode)
		api.POST("/reset", s.gameController.ResetAll)
	}
}

// Engine returns the bare router.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the router instrumented with OpenTelemetry.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.engine, serviceName)
}

// handleWebSocket upgrades the connection and hands it to the hub, which
// owns it until the client goes away.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("http.method", c.Request.Method),
	))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		span.End()
		return
	}
	span.End()

	s.hub.Serve(ctx, conn)
}
