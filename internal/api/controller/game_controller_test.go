package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ctchen222/tictactoe-core/internal/game"
	"ctchen222/tictactoe-core/internal/score"
	"ctchen222/tictactoe-core/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Extras  json.RawMessage `json:"extras"`
}

type snapshotBody struct {
	Board  [][]game.PlayerMark `json:"board"`
	Next   game.PlayerMark     `json:"next"`
	Mode   score.Mode          `json:"mode"`
	Scores score.Scores        `json:"scores"`
}

func setupRouter(t *testing.T) (*gin.Engine, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := session.New(session.Options{})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	gc := NewGameController(s)
	r := gin.New()
	r.GET("/api/game", gc.State)
	r.POST("/api/game/place", gc.Place)
	r.POST("/api/game/restart", gc.Restart)
	r.POST("/api/game/mode", gc.SelectMode)
	r.POST("/api/game/reset", gc.ResetAll)
	return r, s
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decodeSnapshot(t *testing.T, env envelope) snapshotBody {
	t.Helper()
	var snap snapshotBody
	require.NoError(t, json.Unmarshal(env.Extras, &snap))
	return snap
}

func TestGameController_State(t *testing.T) {
	r, _ := setupRouter(t)

	code, env := do(t, r, http.MethodGet, "/api/game", "")

	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	snap := decodeSnapshot(t, env)
	assert.Equal(t, game.PlayerX, snap.Next)
	assert.Equal(t, score.ModeTwoPlayer, snap.Mode)
	assert.Len(t, snap.Board, 3)
}

func TestGameController_Place(t *testing.T) {
	tests := []struct {
		name     string
		setup    []string
		body     string
		wantCode int
	}{
		{name: "Accepted", body: `{"position":4}`, wantCode: http.StatusOK},
		{name: "Corner zero", body: `{"position":0}`, wantCode: http.StatusOK},
		{name: "Occupied", setup: []string{`{"position":4}`}, body: `{"position":4}`, wantCode: http.StatusConflict},
		{name: "Missing position", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "Off the board", body: `{"position":9}`, wantCode: http.StatusBadRequest},
		{name: "Malformed body", body: `{"position":`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t)
			for _, body := range tt.setup {
				code, _ := do(t, r, http.MethodPost, "/api/game/place", body)
				require.Equal(t, http.StatusOK, code)
			}

			code, env := do(t, r, http.MethodPost, "/api/game/place", tt.body)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.wantCode == http.StatusOK, env.Success)
		})
	}
}

func TestGameController_PlaceUpdatesSession(t *testing.T) {
	r, s := setupRouter(t)

	_, env := do(t, r, http.MethodPost, "/api/game/place", `{"position":2}`)

	snap := decodeSnapshot(t, env)
	assert.Equal(t, game.PlayerX, snap.Board[0][2])
	assert.Equal(t, game.PlayerO, snap.Next)
	assert.Equal(t, game.PlayerX, s.Board()[2])
}

func TestGameController_GameOverIsConflict(t *testing.T) {
	r, s := setupRouter(t)
	for _, pos := range []string{"0", "3", "1", "4", "2"} {
		code, _ := do(t, r, http.MethodPost, "/api/game/place", `{"position":`+pos+`}`)
		require.Equal(t, http.StatusOK, code)
	}
	require.Equal(t, game.StatusWon, s.Outcome().Status)

	code, _ := do(t, r, http.MethodPost, "/api/game/place", `{"position":8}`)
	assert.Equal(t, http.StatusConflict, code)

	_, env := do(t, r, http.MethodGet, "/api/game", "")
	assert.Equal(t, 1, decodeSnapshot(t, env).Scores.TwoPlayer.XWins)
}

func TestGameController_RestartAndReset(t *testing.T) {
	r, s := setupRouter(t)
	for _, pos := range []string{"0", "3", "1", "4", "2"} {
		do(t, r, http.MethodPost, "/api/game/place", `{"position":`+pos+`}`)
	}

	code, env := do(t, r, http.MethodPost, "/api/game/restart", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decodeSnapshot(t, env).Scores.TwoPlayer.XWins)
	assert.Equal(t, game.Board{}, s.Board())

	code, env = do(t, r, http.MethodPost, "/api/game/reset", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, score.Scores{}, decodeSnapshot(t, env).Scores)
}

func TestGameController_SelectMode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMode score.Mode
	}{
		{name: "Single player", body: `{"mode":"single_player"}`, wantCode: http.StatusOK, wantMode: score.ModeSinglePlayer},
		{name: "Two player", body: `{"mode":"two_player"}`, wantCode: http.StatusOK, wantMode: score.ModeTwoPlayer},
		{name: "Unknown", body: `{"mode":"arcade"}`, wantCode: http.StatusBadRequest, wantMode: score.ModeTwoPlayer},
		{name: "Missing", body: `{}`, wantCode: http.StatusBadRequest, wantMode: score.ModeTwoPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s := setupRouter(t)

			code, _ := do(t, r, http.MethodPost, "/api/game/mode", tt.body)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMode, s.Mode())
		})
	}
}
