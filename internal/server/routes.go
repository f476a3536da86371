package server

import (
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/inamate/render-go/internal/auth"
	mw "github.com/inamate/inamate/render-go/internal/middleware"
	"github.com/inamate/inamate/render-go/internal/stream"
	"github.com/inamate/inamate/render-go/internal/texture"
)

// RouterConfig carries what the router needs besides the player.
type RouterConfig struct {
	Auth          *auth.Service
	Origins       []string
	OriginPattern []string
}

// NewRouter builds the HTTP API around a player.
func NewRouter(p *Player, cfg RouterConfig) http.Handler {
	authHandler := auth.NewHandler(cfg.Auth)

	r := mux.NewRouter()
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")
	r.PathPrefix("/textures/").Handler(texture.NewHandler(p.Texture)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(cfg.Auth.AuthMiddleware)
	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, p.Stats())
	}).Methods("GET")
	api.HandleFunc("/frame.png", func(w http.ResponseWriter, r *http.Request) {
		handleFramePNG(w, r, p)
	}).Methods("GET")
	api.HandleFunc("/hit", func(w http.ResponseWriter, r *http.Request) {
		handleHit(w, r, p)
	}).Methods("GET")
	api.HandleFunc("/playback/{action}", func(w http.ResponseWriter, r *http.Request) {
		handlePlayback(w, r, p)
	}).Methods("POST")

	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(cfg.Auth.AuthMiddleware)
	ws.HandleFunc("/frames", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, p.Hub(), cfg.OriginPattern)
	})

	return r
}

func handleFramePNG(w http.ResponseWriter, r *http.Request, p *Player) {
	img, err := p.Rasterize()
	if err != nil {
		slog.Error("rasterize frame", "error", err)
		auth.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		slog.Error("encode frame", "error", err)
	}
}

func handleHit(w http.ResponseWriter, r *http.Request, p *Player) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		auth.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y are required"})
		return
	}
	auth.WriteJSON(w, http.StatusOK, stream.HitResultPayload{X: x, Y: y, ObjectID: p.HitTest(x, y)})
}

type playbackRequest struct {
	Frame int `json:"frame"`
}

func handlePlayback(w http.ResponseWriter, r *http.Request, p *Player) {
	var req playbackRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}
	state, err := p.Control(mux.Vars(r)["action"], req.Frame)
	if err != nil {
		auth.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	auth.WriteJSON(w, http.StatusOK, state)
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *stream.Hub, origins []string) {
	viewer := auth.ViewerFromContext(r.Context())
	if viewer == nil {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	stream.NewClient(hub, conn, viewer.ID).Serve(r.Context())
}
