// Package typeid generates and checks the prefixed, sortable identifiers
// used for documents, render nodes, textures, viewers and frames.
package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Document entities.
const (
	PrefixDocument = "doc"
	PrefixScene    = "scene"
	PrefixObject   = "obj"
	PrefixTimeline = "tl"
	PrefixTrack    = "track"
	PrefixKeyframe = "kf"
)

// Runtime entities.
const (
	PrefixNode    = "node"
	PrefixTexture = "tex"
	PrefixViewer  = "viewer"
	PrefixFrame   = "frame"
)

// New returns a fresh ID with the given prefix. It panics on a prefix
// typeid does not accept, which only a programming error produces.
func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewDocumentID() string { return New(PrefixDocument) }
func NewSceneID() string    { return New(PrefixScene) }
func NewObjectID() string   { return New(PrefixObject) }
func NewTimelineID() string { return New(PrefixTimeline) }
func NewTrackID() string    { return New(PrefixTrack) }
func NewKeyframeID() string { return New(PrefixKeyframe) }

func NewNodeID() string    { return New(PrefixNode) }
func NewTextureID() string { return New(PrefixTexture) }
func NewViewerID() string  { return New(PrefixViewer) }
func NewFrameID() string   { return New(PrefixFrame) }

// PrefixOf parses id and returns its prefix.
func PrefixOf(id string) (string, error) {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	return parsed.Prefix(), nil
}

// Validate checks that id is well formed and carries expectedPrefix.
func Validate(id, expectedPrefix string) error {
	prefix, err := PrefixOf(id)
	if err != nil {
		return err
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, prefix, id)
	}
	return nil
}
