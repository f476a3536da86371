//go:build js && wasm

package main

import (
	"encoding/json"
	"image"
	"syscall/js"

	"github.com/inamate/inamate/render-go/internal/engine"
	"github.com/inamate/inamate/render-go/internal/texture"
)

var (
	eng   *engine.Engine
	store *texture.Store
	// batch is the last rendered batch, handed to JS on request.
	batch *engine.Batch
)

func main() {
	// Browser builds receive decoded pixels from JS; nothing is read from disk.
	store = texture.NewStore("", 1)
	eng = engine.NewEngine(engine.Options{Fused: true}, store)

	// Create the engine API object
	inamateEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	inamateEngine.Set("loadDocument", js.FuncOf(loadDocument))
	inamateEngine.Set("updateDocument", js.FuncOf(updateDocument))
	inamateEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	inamateEngine.Set("putTexture", js.FuncOf(putTexture))
	inamateEngine.Set("setPlayhead", js.FuncOf(setPlayhead))
	inamateEngine.Set("play", js.FuncOf(play))
	inamateEngine.Set("pause", js.FuncOf(pause))
	inamateEngine.Set("togglePlay", js.FuncOf(togglePlay))
	inamateEngine.Set("setScene", js.FuncOf(setScene))
	inamateEngine.Set("setSelection", js.FuncOf(setSelection))
	inamateEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	inamateEngine.Set("render", js.FuncOf(render))
	inamateEngine.Set("vertexBytes", js.FuncOf(vertexBytes))
	inamateEngine.Set("indexCount", js.FuncOf(indexCount))
	inamateEngine.Set("hitTest", js.FuncOf(hitTest))
	inamateEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	inamateEngine.Set("getScene", js.FuncOf(getScene))
	inamateEngine.Set("getPlaybackState", js.FuncOf(getPlaybackState))
	inamateEngine.Set("getDocument", js.FuncOf(getDocument))
	inamateEngine.Set("getFrame", js.FuncOf(getFrame))
	inamateEngine.Set("isPlaying", js.FuncOf(isPlaying))
	inamateEngine.Set("getFPS", js.FuncOf(getFPS))
	inamateEngine.Set("getTotalFrames", js.FuncOf(getTotalFrames))

	// Register on global scope
	js.Global().Set("inamateEngine", inamateEngine)

	// Signal that WASM is ready
	js.Global().Set("inamateWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	if err := eng.LoadDocument([]byte(args[0].String())); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func updateDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	if err := eng.UpdateDocument([]byte(args[0].String())); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	projectID := "proj_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		projectID = args[0].String()
	}
	eng.LoadSampleDocument(projectID)
	return okResult()
}

// putTexture(assetId, width, height, rgba Uint8Array) registers premultiplied
// RGBA pixels for an asset.
func putTexture(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(map[string]interface{}{"error": "putTexture(assetId, width, height, pixels)"})
	}
	w, h := args[1].Int(), args[2].Int()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if n := js.CopyBytesToGo(img.Pix, args[3]); n != len(img.Pix) {
		return js.ValueOf(map[string]interface{}{"error": "pixel data does not match size"})
	}
	t := store.Put(args[0].String(), img)
	return js.ValueOf(t.ID())
}

func setPlayhead(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetPlayhead(args[0].Int())
	return nil
}

func play(this js.Value, args []js.Value) interface{} {
	eng.Play()
	return nil
}

func pause(this js.Value, args []js.Value) interface{} {
	eng.Pause()
	return nil
}

func togglePlay(this js.Value, args []js.Value) interface{} {
	eng.TogglePlay()
	return nil
}

func setScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetScene(args[0].String())
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func capture(b *engine.Batch) error {
	batch = b
	return nil
}

// tick advances playback and renders; it returns the frame stats as JSON.
func tick(this js.Value, args []js.Value) interface{} {
	stats, err := eng.Tick(engine.ExecutorFunc(capture))
	if err != nil {
		return errorResult(err)
	}
	data, _ := json.Marshal(stats)
	return js.ValueOf(string(data))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	stats, err := eng.Render(engine.ExecutorFunc(capture))
	if err != nil {
		return errorResult(err)
	}
	data, _ := json.Marshal(stats)
	return js.ValueOf(string(data))
}

// vertexBytes returns the last batch's vertex slots as a Uint8Array,
// 64 bytes per quad, little-endian.
func vertexBytes(this js.Value, args []js.Value) interface{} {
	if batch == nil {
		return js.Global().Get("Uint8Array").New(0)
	}
	data := batch.Bytes()
	out := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(out, data)
	return out
}

func indexCount(this js.Value, args []js.Value) interface{} {
	if batch == nil {
		return js.ValueOf(0)
	}
	return js.ValueOf(batch.Quads() * 6)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(engine.RectToJSON(eng.SelectionBounds()))
}

func getScene(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetScene())
}

func getPlaybackState(this js.Value, args []js.Value) interface{} {
	data, _ := json.Marshal(eng.PlaybackState())
	return js.ValueOf(string(data))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getFrame(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetFrame())
}

func isPlaying(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.IsPlaying())
}

func getFPS(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetFPS())
}

func getTotalFrames(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetTotalFrames())
}
