package engine

import (
	"errors"
	"fmt"

	"github.com/inamate/inamate/render-go/internal/document"
)

var (
	// ErrNoDocument is returned by operations that need a loaded document.
	ErrNoDocument = errors.New("engine: no document loaded")
	// ErrUnknownObject is returned for scene or object IDs missing from the
	// document.
	ErrUnknownObject = errors.New("engine: unknown object")
)

// TextureResolver maps document assets to texture handles.
type TextureResolver interface {
	// Texture returns the handle for an asset. It may still be loading.
	Texture(asset document.Asset) TextureSource
	// White returns a loaded 1x1 white texture used for solid rectangles.
	White() TextureSource
}

// Scene is a document scene built into a render tree.
type Scene struct {
	ID         string
	Width      int
	Height     int
	Background uint32
	Root       *Node

	nodes map[string]*Node
}

// Node returns the render node built for a document object.
func (s *Scene) Node(objectID string) *Node { return s.nodes[objectID] }

// Len returns the number of nodes in the scene.
func (s *Scene) Len() int { return len(s.nodes) }

// Destroy tears down the render tree.
func (s *Scene) Destroy() {
	if s.Root != nil {
		s.Root.Destroy()
	}
	clear(s.nodes)
}

// BuildScene creates one render node per object reachable from the scene
// root and makes the scene root the context's root.
func BuildScene(ctx *RenderContext, doc *document.InDocument, sceneID string, textures TextureResolver) (*Scene, error) {
	sc, ok := doc.Scenes[sceneID]
	if !ok {
		return nil, fmt.Errorf("build scene %s: %w", sceneID, ErrUnknownObject)
	}
	bg, err := ParseColor(sc.Background)
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", sceneID, err)
	}

	s := &Scene{
		ID:         sceneID,
		Width:      sc.Width,
		Height:     sc.Height,
		Background: bg,
		nodes:      make(map[string]*Node),
	}
	root, err := s.buildNode(ctx, doc, sc.Root, textures)
	if err != nil {
		s.Destroy()
		if root != nil {
			root.Destroy()
		}
		return nil, fmt.Errorf("build scene %s: %w", sceneID, err)
	}
	s.Root = root
	if err := ctx.SetRoot(root); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("build scene %s: %w", sceneID, err)
	}
	Logger().Info("scene built", "scene", sceneID, "nodes", len(s.nodes))
	return s, nil
}

func (s *Scene) buildNode(ctx *RenderContext, doc *document.InDocument, objectID string, textures TextureResolver) (*Node, error) {
	obj, ok := doc.Objects[objectID]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", objectID, ErrUnknownObject)
	}
	if _, seen := s.nodes[objectID]; seen {
		return nil, fmt.Errorf("object %s: %w", objectID, ErrCycle)
	}

	n := ctx.CreateNode(objectID)
	s.nodes[objectID] = n
	if err := ApplyObject(n, &obj, nil, nil); err != nil {
		return n, err
	}

	switch obj.Type {
	case document.ObjectTypeRect:
		n.SetDisplayedTextureSource(textures.White())
	case document.ObjectTypeSprite:
		asset, ok := doc.Assets[obj.Asset]
		if !ok {
			return n, fmt.Errorf("object %s asset %s: %w", objectID, obj.Asset, ErrUnknownObject)
		}
		n.SetDisplayedTextureSource(textures.Texture(asset))
	}

	for _, childID := range obj.Children {
		c, err := s.buildNode(ctx, doc, childID, textures)
		if c != nil {
			if addErr := n.AddChild(c); addErr != nil && err == nil {
				err = addErr
			}
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ApplyObject pushes an object's properties, with optional animation
// overrides, into its render node. Textures are bound at build time only.
func ApplyObject(n *Node, obj *document.ObjectNode, num PropertyOverrides, str StringPropertyOverrides) error {
	t := ApplyOverridesToTransform(obj.Transform, num)
	n.SetMatrix(FromTransform(t.X, t.Y, t.SX, t.SY, t.R, t.SkewX, t.SkewY, t.AX, t.AY))

	style := ApplyOverridesToStyle(obj.Style, num, str)
	alpha := style.Alpha
	if !obj.Visible {
		alpha = 0
	}
	n.SetLocalAlpha(alpha)
	n.SetDimensions(obj.Width, obj.Height)

	base, err := ParseColor(style.Color)
	if err != nil {
		return fmt.Errorf("object %s: %w", obj.ID, err)
	}
	corners := [4]uint32{base, base, base, base}
	for i, s := range [4]string{style.ColorUl, style.ColorUr, style.ColorBl, style.ColorBr} {
		if s == "" {
			continue
		}
		if corners[i], err = ParseColor(s); err != nil {
			return fmt.Errorf("object %s: %w", obj.ID, err)
		}
	}
	n.SetColorUl(corners[0])
	n.SetColorUr(corners[1])
	n.SetColorBl(corners[2])
	n.SetColorBr(corners[3])

	if tc := obj.TexCoords; tc != nil {
		n.SetTextureCoords(tc.ULX, tc.ULY, tc.BRX, tc.BRY)
	}
	n.SetClipping(obj.Clipping)

	z := obj.ZIndex
	if v, ok := ZIndexOverride(num); ok {
		z = v
	}
	n.SetZIndex(z)
	n.SetForceStackingContext(obj.ForceZContext)
	return nil
}
