package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/inamate/inamate/render-go/internal/document"
	"github.com/inamate/inamate/render-go/internal/engine"
	"github.com/inamate/inamate/render-go/internal/typeid"
)

// ErrClosed is returned when loading through a closed store.
var ErrClosed = errors.New("texture: store closed")

type job struct {
	tex  *Texture
	path string
}

type result struct {
	tex *Texture
	img *image.RGBA
	err error
}

// Store hands out texture handles for document assets and decodes them in
// the background. Texture, Put, White and Apply are called from the frame
// goroutine; only decoding runs elsewhere.
type Store struct {
	dir string

	jobs    chan job
	results chan result
	backlog []job
	wg      sync.WaitGroup
	closed  bool

	byAsset map[string]*Texture
	white   *Texture
}

// NewStore starts workers decoding files below dir. With an empty dir
// nothing is read from disk.
func NewStore(dir string, workers int) *Store {
	if workers <= 0 {
		workers = 1
	}
	s := &Store{
		dir:     dir,
		jobs:    make(chan job, 64),
		results: make(chan result, 64),
		byAsset: make(map[string]*Texture),
	}

	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.SetRGBA(0, 0, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	s.white = &Texture{id: typeid.NewTextureID(), assetID: "white", img: white, loaded: true}

	for range workers {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *Store) worker() {
	defer s.wg.Done()
	for j := range s.jobs {
		img, err := decodeFile(j.path)
		s.results <- result{tex: j.tex, img: img, err: err}
	}
}

// Texture returns the handle for an asset, queueing its decode on first use.
func (s *Store) Texture(asset document.Asset) engine.TextureSource {
	if t, ok := s.byAsset[asset.ID]; ok {
		return t
	}
	t := &Texture{id: typeid.NewTextureID(), assetID: asset.ID, url: asset.URL}
	s.byAsset[asset.ID] = t
	if s.closed {
		t.err = ErrClosed
		return t
	}
	if s.dir == "" {
		// No texture directory: pixels arrive through Put.
		return t
	}
	s.enqueue(job{tex: t, path: s.resolve(asset.URL)})
	return t
}

// Lookup returns a texture by its ID.
func (s *Store) Lookup(id string) (*Texture, bool) {
	if s.white.id == id {
		return s.white, true
	}
	for _, t := range s.byAsset {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// Put registers an already decoded image for an asset ID, replacing any
// handle's pixels in place.
func (s *Store) Put(assetID string, img image.Image) *Texture {
	t, ok := s.byAsset[assetID]
	if !ok {
		t = &Texture{id: typeid.NewTextureID(), assetID: assetID}
		s.byAsset[assetID] = t
	}
	t.img, t.loaded, t.err = toRGBA(img), true, nil
	return t
}

// White returns the loaded 1x1 white texture.
func (s *Store) White() engine.TextureSource { return s.white }

// Apply publishes finished decodes and returns how many it applied. It
// never blocks.
func (s *Store) Apply() int {
	s.flushBacklog()
	n := 0
	for {
		select {
		case r := <-s.results:
			n++
			if r.err != nil {
				r.tex.err = r.err
				slog.Warn("texture decode failed", "asset", r.tex.assetID, "error", r.err)
				continue
			}
			r.tex.img, r.tex.loaded = r.img, true
		default:
			return n
		}
	}
}

// Close stops the workers and discards pending results.
func (s *Store) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.jobs)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-s.results:
		case <-done:
			return
		}
	}
}

func (s *Store) enqueue(j job) {
	s.flushBacklog()
	if len(s.backlog) > 0 {
		s.backlog = append(s.backlog, j)
		return
	}
	select {
	case s.jobs <- j:
	default:
		s.backlog = append(s.backlog, j)
	}
}

func (s *Store) flushBacklog() {
	for len(s.backlog) > 0 && !s.closed {
		select {
		case s.jobs <- s.backlog[0]:
			s.backlog[0] = job{}
			s.backlog = s.backlog[1:]
		default:
			return
		}
	}
}

// resolve keeps asset paths inside the texture directory.
func (s *Store) resolve(url string) string {
	return filepath.Join(s.dir, filepath.Clean("/"+url))
}

func decodeFile(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", filepath.Base(path), err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
