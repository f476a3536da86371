package server

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/render-go/internal/auth"
	"github.com/inamate/inamate/render-go/internal/engine"
	"github.com/inamate/inamate/render-go/internal/stream"
	"github.com/inamate/inamate/render-go/internal/texture"
)

func newTestPlayer(t *testing.T) (*Player, *texture.Store) {
	t.Helper()
	store := texture.NewStore("", 1)
	t.Cleanup(store.Close)
	eng := engine.NewEngine(engine.Options{Fused: true}, store)
	p := NewPlayer(eng, store, 24)
	require.NoError(t, p.Load(""))
	require.NoError(t, p.Step())
	return p, store
}

func newTestRouter(t *testing.T) (http.Handler, *Player, *texture.Store) {
	t.Helper()
	p, store := newTestPlayer(t)
	h := NewRouter(p, RouterConfig{
		Auth:    auth.NewService("", "test-secret"),
		Origins: []string{"http://localhost:5173"},
	})
	return h, p, store
}

func do(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func issueToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(h, http.MethodPost, "/auth/token", "", `{"name":"tester"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res auth.TokenResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIRequiresToken(t *testing.T) {
	h, _, _ := newTestRouter(t)
	for _, target := range []string{"/api/stats", "/api/frame.png", "/api/hit?x=1&y=1", "/ws/frames"} {
		assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, target, "", "").Code, target)
	}
}

func TestStats(t *testing.T) {
	h, _, _ := newTestRouter(t)
	token := issueToken(t, h)

	rec := do(h, http.MethodGet, "/api/stats", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var s Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.EqualValues(t, 1, s.Published)
	assert.Greater(t, s.Frame.Quads, 0)
	assert.True(t, s.Playback.Playing)
	assert.Empty(t, s.Error)
}

func TestFramePNG(t *testing.T) {
	h, _, _ := newTestRouter(t)
	token := issueToken(t, h)

	rec := do(h, http.MethodGet, "/api/frame.png", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1280, 720), img.Bounds())
}

func TestHit(t *testing.T) {
	h, _, _ := newTestRouter(t)
	token := issueToken(t, h)

	rec := do(h, http.MethodGet, "/api/hit?x=190&y=420", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res stream.HitResultPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ObjectID)
	assert.Equal(t, 190.0, res.X)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/hit?x=1", token, "").Code)
}

func TestPlayback(t *testing.T) {
	h, p, _ := newTestRouter(t)
	token := issueToken(t, h)

	var state engine.PlaybackState
	rec := do(h, http.MethodPost, "/api/playback/pause", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Playing)

	rec = do(h, http.MethodPost, "/api/playback/seek", token, `{"frame":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 10, state.Frame)

	rec = do(h, http.MethodPost, "/api/playback/toggle", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Playing)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/playback/rewind", token, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/playback/seek", token, "{").Code)
	assert.True(t, p.Stats().Playback.Playing)
}

func TestPausedFramesAreSkipped(t *testing.T) {
	p, _ := newTestPlayer(t)
	_, err := p.Control("pause", 0)
	require.NoError(t, err)

	require.NoError(t, p.Step())
	require.NoError(t, p.Step())
	require.NoError(t, p.Step())

	s := p.Stats()
	assert.GreaterOrEqual(t, s.Skipped, int64(2))
	assert.Equal(t, s.Published+s.Skipped, int64(4))
}

func TestTextureRoute(t *testing.T) {
	h, _, store := newTestRouter(t)
	white := store.White().(*texture.Texture)

	rec := do(h, http.MethodGet, "/textures/"+white.ID()+".png", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/textures/tex_missing.png", "", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/token", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/auth/token", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoadSceneFile(t *testing.T) {
	store := texture.NewStore("", 1)
	t.Cleanup(store.Close)
	p := NewPlayer(engine.NewEngine(engine.Options{}, store), store, 24)

	assert.Error(t, p.Load(filepath.Join(t.TempDir(), "missing.json")))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	assert.Error(t, p.Load(bad))

	_, err := p.Rasterize()
	assert.ErrorIs(t, err, engine.ErrNoDocument)
}

func TestFrameWebSocket(t *testing.T) {
	h, p, _ := newTestRouter(t)
	token := issueToken(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go p.Hub().Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/frames?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	types := make([]string, 0, 3)
	for range 3 {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg stream.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		types = append(types, msg.Type)
	}
	// The last published frame is replayed to late joiners.
	assert.Equal(t, []string{stream.TypeWelcome, stream.TypeViewerState, stream.TypeFrame}, types)
}
