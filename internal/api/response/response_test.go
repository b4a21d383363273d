package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ctchen222/tictactoe-core/internal/session"
	"ctchen222/tictactoe-core/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	validationErr := validator.GetValidator().Var("arcade", "game_mode")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Occupied", err: session.ErrCellOccupied, want: http.StatusConflict},
		{name: "Wrapped invalid cell", err: fmt.Errorf("%w: 9", session.ErrInvalidCell), want: http.StatusConflict},
		{name: "Game over", err: session.ErrGameOver, want: http.StatusConflict},
		{name: "Not your turn", err: session.ErrNotYourTurn, want: http.StatusConflict},
		{name: "Unknown mode", err: session.ErrUnknownMode, want: http.StatusBadRequest},
		{name: "Validation", err: validationErr, want: http.StatusBadRequest},
		{name: "Closed", err: session.ErrClosed, want: http.StatusServiceUnavailable},
		{name: "Other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestFailResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FailResponse(c, session.ErrCellOccupied)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"success":false,"code":409,"extras":{"message":"cell already occupied"}}`, w.Body.String())
}
