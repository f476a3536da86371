// Package texture loads image assets into texture handles for the render
// engine. Decoding runs on worker goroutines; results become visible to the
// engine only when the frame driver calls Store.Apply between frames.
package texture

import (
	"image"
)

// Texture is a handle to decoded pixels. A handle is returned before its
// image is decoded and reports Loaded() == false until then.
type Texture struct {
	id      string
	assetID string
	url     string

	img    *image.RGBA
	loaded bool
	err    error
}

// ID returns the texture's identifier.
func (t *Texture) ID() string { return t.id }

// AssetID returns the document asset the texture was loaded from.
func (t *Texture) AssetID() string { return t.assetID }

// URL returns the asset path relative to the texture directory.
func (t *Texture) URL() string { return t.url }

// Loaded reports whether the pixels are available.
func (t *Texture) Loaded() bool { return t.loaded }

// Image returns the decoded pixels (premultiplied RGBA), or nil.
func (t *Texture) Image() *image.RGBA { return t.img }

// Size returns the pixel dimensions, or zero before loading.
func (t *Texture) Size() (int, int) {
	if t.img == nil {
		return 0, 0
	}
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Err returns the decode error, if loading failed.
func (t *Texture) Err() error { return t.err }
