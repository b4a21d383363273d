package controller

import (
	"net/http"

	"ctchen222/tictactoe-core/internal/api/models"
	"ctchen222/tictactoe-core/internal/api/response"
	"ctchen222/tictactoe-core/internal/events"
	"ctchen222/tictactoe-core/internal/score"
	"ctchen222/tictactoe-core/internal/session"
	"ctchen222/tictactoe-core/internal/validator"
	"ctchen222/tictactoe-core/pkg/proto"

	"github.com/gin-gonic/gin"
)

// Game is what the controller needs from the session.
type Game interface {
	events.Game
	Snapshot() session.Snapshot
}

// GameController handles game-related HTTP requests.
type GameController struct {
	game Game
}

// NewGameController creates a new GameController.
func NewGameController(game Game) *GameController {
	return &GameController{
		game: game,
	}
}

// State returns the current snapshot.
func (gc *GameController) State(c *gin.Context) {
	response.SuccessResponse(c, proto.NewSnapshotMessage(gc.game.Snapshot()))
}

// Place handles a placement by the side to move.
func (gc *GameController) Place(c *gin.Context) {
	var req models.PlaceRequest
	if !bind(c, &req) {
		return
	}
	gc.apply(c, events.Event{Type: events.Place, Position: *req.Position})
}

func (gc *GameController) Restart(c *gin.Context) {
	gc.apply(c, events.Event{Type: events.Restart})
}

// SelectMode switches mode, which also restarts the game.
func (gc *GameController) SelectMode(c *gin.Context) {
	var req models.ModeRequest
	if !bind(c, &req) {
		return
	}
	gc.apply(c, events.Event{Type: events.SelectMode, Mode: score.Mode(req.Mode)})
}

// ResetAll zeroes the scores and restarts the game.
func (gc *GameController) ResetAll(c *gin.Context) {
	gc.apply(c, events.Event{Type: events.ResetAll})
}

func (gc *GameController) apply(c *gin.Context, e events.Event) {
	if err := events.Apply(c.Request.Context(), gc.game, e); err != nil {
		response.FailResponse(c, err)
		return
	}
	response.SuccessResponse(c, proto.NewSnapshotMessage(gc.game.Snapshot()))
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	if err := validator.GetValidator().Struct(req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
