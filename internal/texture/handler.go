package texture

import (
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
)

// LookupFunc returns the decoded pixels of a texture. The server supplies
// one that takes its frame lock.
type LookupFunc func(id string) (*image.RGBA, bool)

// Handler serves decoded textures as PNG to remote viewers.
type Handler struct {
	lookup LookupFunc
}

// NewHandler creates a texture handler.
func NewHandler(lookup LookupFunc) *Handler {
	return &Handler{lookup: lookup}
}

// ServeHTTP handles GET /textures/{id}.png.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], ".png")
	img, ok := h.lookup(id)
	if !ok || img == nil {
		http.Error(w, "texture not found", http.StatusNotFound)
		return
	}
	// Texture IDs are never reused, so the pixels are immutable.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, unpremultiplied(img)); err != nil {
		slog.Error("encode texture", "error", err, "texture", id)
	}
}

// unpremultiplied converts to NRGBA so the PNG carries straight alpha.
func unpremultiplied(src *image.RGBA) image.Image {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}
