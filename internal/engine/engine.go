package engine

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/inamate/render-go/internal/document"
)

// TextureApplier is implemented by texture stores that finish loading in
// the background and publish results between frames.
type TextureApplier interface {
	Apply() int
}

// Engine owns a document, the render tree built from it and playback
// state. It is driven by one goroutine; callers serialize access.
type Engine struct {
	ctx      *RenderContext
	textures TextureResolver

	// Document state
	doc     *document.InDocument
	sceneID string
	scene   *Scene

	// Playback state
	frame       int
	playing     bool
	fps         int
	totalFrames int

	// Objects whose properties were overridden by the last animation
	// evaluation; they are reset to document values once no track drives
	// them.
	animated map[string]bool

	// dirty: the render tree needs a rebuild from the document.
	dirty bool
	// seek: the playhead moved and animation must be re-applied.
	seek bool

	selection []string
}

// NewEngine creates an engine rendering through a context with opts.
func NewEngine(opts Options, textures TextureResolver) *Engine {
	return &Engine{
		ctx:      NewRenderContext(opts),
		textures: textures,
		fps:      24,
		animated: make(map[string]bool),
	}
}

// --- Commands ---

// LoadDocument loads a document from JSON and resets playback.
func (e *Engine) LoadDocument(data []byte) error {
	var doc document.InDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	e.setDocument(&doc)
	e.frame = 0
	e.playing = false
	e.selection = nil
	return nil
}

// UpdateDocument reloads a document from JSON while preserving playback
// state.
func (e *Engine) UpdateDocument(data []byte) error {
	var doc document.InDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	e.setDocument(&doc)
	e.SetPlayhead(e.frame)
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(projectID string) {
	e.setDocument(document.NewSampleDocument(projectID))
	e.frame = 0
	e.playing = false
	e.selection = nil
}

func (e *Engine) setDocument(doc *document.InDocument) {
	e.doc = doc
	e.fps = doc.Project.FPS
	if e.fps <= 0 {
		e.fps = 24
	}
	e.sceneID = ""
	if len(doc.Project.Scenes) > 0 {
		e.sceneID = doc.Project.Scenes[0]
	}
	if tl, ok := doc.Timelines[doc.Project.RootTimeline]; ok && tl.Length > 0 {
		e.totalFrames = tl.Length
	} else {
		e.totalFrames = 48
	}
	e.dirty = true
	e.seek = true
}

// SetPlayhead sets the current frame, clamped to the timeline.
func (e *Engine) SetPlayhead(frame int) {
	frame = max(0, min(frame, e.totalFrames-1))
	if e.frame != frame {
		e.frame = frame
		e.seek = true
	}
}

// Play starts playback.
func (e *Engine) Play() { e.playing = true }

// Pause stops playback.
func (e *Engine) Pause() { e.playing = false }

// TogglePlay toggles play/pause state.
func (e *Engine) TogglePlay() { e.playing = !e.playing }

// SetScene switches to another scene of the document. Unknown IDs are
// ignored.
func (e *Engine) SetScene(sceneID string) {
	if e.doc == nil || sceneID == e.sceneID {
		return
	}
	if _, ok := e.doc.Scenes[sceneID]; !ok {
		Logger().Warn("unknown scene", "scene", sceneID)
		return
	}
	e.sceneID = sceneID
	e.dirty = true
}

// SetSelection sets the selected object IDs.
func (e *Engine) SetSelection(ids []string) { e.selection = ids }

// Tick advances the playhead if playing and renders one frame.
func (e *Engine) Tick(exec Executor) (FrameStats, error) {
	if e.playing && e.totalFrames > 0 {
		e.frame = (e.frame + 1) % e.totalFrames
		e.seek = true
	}
	return e.Render(exec)
}

// Render renders the current frame without advancing playback.
func (e *Engine) Render(exec Executor) (FrameStats, error) {
	if e.doc == nil {
		return FrameStats{}, ErrNoDocument
	}
	if a, ok := e.textures.(TextureApplier); ok {
		if n := a.Apply(); n > 0 {
			Logger().Debug("textures applied", "count", n)
		}
	}
	if e.dirty {
		if err := e.rebuild(); err != nil {
			return FrameStats{}, err
		}
	}
	if e.seek {
		if err := e.applyAnimation(); err != nil {
			return FrameStats{}, err
		}
	}
	return e.ctx.Frame(exec)
}

func (e *Engine) rebuild() error {
	if e.scene != nil {
		e.scene.Destroy()
		e.scene = nil
	}
	clear(e.animated)
	scene, err := BuildScene(e.ctx, e.doc, e.sceneID, e.textures)
	if err != nil {
		return err
	}
	e.scene = scene
	e.dirty = false
	e.seek = true
	return nil
}

// applyAnimation evaluates the timelines at the playhead and pushes the
// values into the render tree.
func (e *Engine) applyAnimation() error {
	result := EvaluateScene(e.doc, e.sceneID, e.frame)
	touched := make(map[string]bool, len(result.Numeric)+len(result.Strings))
	for id := range result.Numeric {
		touched[id] = true
	}
	for id := range result.Strings {
		touched[id] = true
	}
	for id := range e.animated {
		touched[id] = true
	}

	for id := range touched {
		obj, ok := e.doc.Objects[id]
		n := e.scene.Node(id)
		if !ok || n == nil {
			continue
		}
		if err := ApplyObject(n, &obj, result.Numeric[id], result.Strings[id]); err != nil {
			return fmt.Errorf("apply frame %d: %w", e.frame, err)
		}
	}

	clear(e.animated)
	for id := range result.Numeric {
		e.animated[id] = true
	}
	for id := range result.Strings {
		e.animated[id] = true
	}
	e.seek = false
	return nil
}

// --- Queries ---

// HitTest returns the object ID of the front-most visible object at (x, y),
// or an empty string.
func (e *Engine) HitTest(x, y float64) string {
	n := e.ctx.HitTest(x, y)
	if n == nil {
		return ""
	}
	id, _ := n.Owner.(string)
	return id
}

// Node returns the render node of a document object.
func (e *Engine) Node(objectID string) *Node {
	if e.scene == nil {
		return nil
	}
	return e.scene.Node(objectID)
}

// SelectionBounds returns the bounding box of the current selection.
func (e *Engine) SelectionBounds() Rect {
	nodes := make([]*Node, 0, len(e.selection))
	for _, id := range e.selection {
		nodes = append(nodes, e.Node(id))
	}
	return SelectionBounds(nodes)
}

// Stats returns the statistics of the last frame.
func (e *Engine) Stats() FrameStats { return e.ctx.Stats() }

// Context returns the render context.
func (e *Engine) Context() *RenderContext { return e.ctx }

// Scene returns the built scene, or nil before the first frame.
func (e *Engine) Scene() *Scene { return e.scene }

// SnapshotRun is a texture run of a snapshot.
type SnapshotRun struct {
	Texture string `json:"texture"`
	Quads   int    `json:"quads"`
}

// Snapshot is a detached copy of the last filled batch.
type Snapshot struct {
	Frame      uint64        `json:"frame"`
	Playhead   int           `json:"playhead"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Background uint32        `json:"background"`
	Slots      []uint32      `json:"-"`
	Runs       []SnapshotRun `json:"runs"`
	Stats      FrameStats    `json:"stats"`
}

// Snapshot copies the last filled batch. Texture handles that expose an
// ID() string method are named by it.
func (e *Engine) Snapshot() Snapshot {
	b := e.ctx.Batch()
	s := Snapshot{
		Frame:    e.ctx.Stats().Frame,
		Playhead: e.frame,
		Slots:    append([]uint32(nil), b.Slots()...),
		Runs:     make([]SnapshotRun, 0, len(b.Runs())),
		Stats:    e.ctx.Stats(),
	}
	if e.scene != nil {
		s.Width, s.Height, s.Background = e.scene.Width, e.scene.Height, e.scene.Background
	}
	for _, r := range b.Runs() {
		var name string
		if id, ok := r.Texture.(interface{ ID() string }); ok {
			name = id.ID()
		}
		s.Runs = append(s.Runs, SnapshotRun{Texture: name, Quads: r.Quads})
	}
	return s
}

// PlaybackState is the JSON shape of the playback state.
type PlaybackState struct {
	Frame       int  `json:"frame"`
	Playing     bool `json:"playing"`
	FPS         int  `json:"fps"`
	TotalFrames int  `json:"totalFrames"`
}

// PlaybackState returns the current playback state.
func (e *Engine) PlaybackState() PlaybackState {
	return PlaybackState{Frame: e.frame, Playing: e.playing, FPS: e.fps, TotalFrames: e.totalFrames}
}

// GetScene returns the current scene metadata as JSON.
func (e *Engine) GetScene() string {
	if e.doc == nil || e.sceneID == "" {
		return "{}"
	}
	scene, ok := e.doc.Scenes[e.sceneID]
	if !ok {
		return "{}"
	}
	data, _ := json.Marshal(scene)
	return string(data)
}

// GetDocument returns the full document as JSON.
func (e *Engine) GetDocument() string {
	if e.doc == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.doc)
	return string(data)
}

// GetFrame returns the current frame number.
func (e *Engine) GetFrame() int { return e.frame }

// IsPlaying returns whether playback is active.
func (e *Engine) IsPlaying() bool { return e.playing }

// GetFPS returns the frames per second.
func (e *Engine) GetFPS() int { return e.fps }

// GetTotalFrames returns the total number of frames.
func (e *Engine) GetTotalFrames() int { return e.totalFrames }
