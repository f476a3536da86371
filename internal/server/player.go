package server

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/inamate/inamate/render-go/internal/engine"
	"github.com/inamate/inamate/render-go/internal/raster"
	"github.com/inamate/inamate/render-go/internal/stream"
	"github.com/inamate/inamate/render-go/internal/texture"
	"github.com/inamate/inamate/render-go/internal/typeid"
)

// Player drives an engine at a fixed frame rate and publishes every frame
// to the stream hub. The engine is single-threaded; all access goes
// through mu.
type Player struct {
	mu     sync.Mutex
	eng    *engine.Engine
	store  *texture.Store
	hub    *stream.Hub
	canvas *raster.Canvas
	fps    int

	lastErr error
}

func NewPlayer(eng *engine.Engine, store *texture.Store, fps int) *Player {
	p := &Player{eng: eng, store: store, fps: fps}
	p.hub = stream.NewHub(p.HitTest)
	return p
}

// Hub returns the hub frames are published to.
func (p *Player) Hub() *stream.Hub { return p.hub }

// Load loads the scene file, or the built-in sample when path is empty.
func (p *Player) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if path == "" {
		p.eng.LoadSampleDocument(typeid.NewDocumentID())
		p.eng.Play()
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene file: %w", err)
	}
	if err := p.eng.LoadDocument(data); err != nil {
		return err
	}
	p.eng.Play()
	return nil
}

// Run ticks until ctx is done.
func (p *Player) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(p.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.Step(); err != nil {
				slog.Error("frame failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Step renders one frame and publishes it.
func (p *Player) Step() error {
	p.mu.Lock()
	_, err := p.eng.Tick(nil)
	var snap engine.Snapshot
	if err == nil {
		snap = p.eng.Snapshot()
	}
	p.lastErr = err
	p.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = p.hub.Publish(snap)
	return err
}

// Control applies a playback action: play, pause, toggle or seek.
func (p *Player) Control(action string, frame int) (engine.PlaybackState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch action {
	case "play":
		p.eng.Play()
	case "pause":
		p.eng.Pause()
	case "toggle":
		p.eng.TogglePlay()
	case "seek":
		p.eng.SetPlayhead(frame)
	default:
		return engine.PlaybackState{}, fmt.Errorf("unknown playback action %q", action)
	}
	return p.eng.PlaybackState(), nil
}

// HitTest returns the object at a point in scene coordinates.
func (p *Player) HitTest(x, y float64) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eng.HitTest(x, y)
}

// Stats is the body of GET /api/stats.
type Stats struct {
	Frame     engine.FrameStats    `json:"frame"`
	Playback  engine.PlaybackState `json:"playback"`
	Viewers   int                  `json:"viewers"`
	Published int64                `json:"published"`
	Skipped   int64                `json:"skipped"`
	Error     string               `json:"error,omitempty"`
}

func (p *Player) Stats() Stats {
	p.mu.Lock()
	s := Stats{
		Frame:    p.eng.Stats(),
		Playback: p.eng.PlaybackState(),
	}
	if p.lastErr != nil {
		s.Error = p.lastErr.Error()
	}
	p.mu.Unlock()

	s.Viewers = p.hub.Clients()
	s.Published = p.hub.Published()
	s.Skipped = p.hub.Skipped()
	return s
}

// Rasterize draws the last filled batch. The returned image is a copy.
func (p *Player) Rasterize() (*image.RGBA, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	scene := p.eng.Scene()
	if scene == nil {
		return nil, engine.ErrNoDocument
	}
	if c := p.canvas; c == nil || c.Image().Bounds() != image.Rect(0, 0, max(scene.Width, 1), max(scene.Height, 1)) {
		p.canvas = raster.NewCanvas(scene.Width, scene.Height)
	}
	p.canvas.SetBackground(scene.Background)
	if err := p.canvas.Execute(p.eng.Context().Batch()); err != nil {
		return nil, err
	}

	src := p.canvas.Image()
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out, nil
}

// Texture returns decoded texture pixels for the texture handler.
func (p *Player) Texture(id string) (*image.RGBA, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.store.Lookup(id)
	if !ok || !t.Loaded() {
		return nil, false
	}
	return t.Image(), true
}
