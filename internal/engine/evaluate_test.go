package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/render-go/internal/document"
)

func keyframes(values ...any) []document.Keyframe {
	var out []document.Keyframe
	for i := 0; i+2 < len(values); i += 3 {
		raw, _ := json.Marshal(values[i+1])
		out = append(out, document.Keyframe{
			Frame:  values[i].(int),
			Value:  raw,
			Easing: values[i+2].(document.EasingType),
		})
	}
	return out
}

func TestSegment(t *testing.T) {
	kfs := keyframes(
		10, 0.0, document.EasingLinear,
		20, 1.0, document.EasingLinear,
		20, 2.0, document.EasingLinear,
	)
	cases := []struct{ frame, prev, next int }{
		{5, -1, 0},
		{10, 0, 0},
		{15, 0, 1},
		{20, 2, 1},
		{25, 2, -1},
	}
	for _, tc := range cases {
		prev, next := segment(kfs, tc.frame)
		assert.Equal(t, tc.prev, prev, "prev at %d", tc.frame)
		assert.Equal(t, tc.next, next, "next at %d", tc.frame)
	}
}

func TestInterpolateTrack(t *testing.T) {
	kfs := keyframes(
		10, 0.0, document.EasingLinear,
		20, 100.0, document.EasingEaseIn,
		30, 0.0, document.EasingLinear,
	)

	cases := []struct {
		frame int
		want  float64
	}{
		{0, 0},    // before the first key
		{10, 0},   // on a key
		{15, 50},  // linear
		{20, 100}, // on a key
		{25, 75},  // ease in: 100 - 100*0.25
		{40, 0},   // hold after the last key
	}
	for _, tc := range cases {
		got, ok := sampleNumber(kfs, tc.frame)
		require.True(t, ok, "frame %d", tc.frame)
		assert.InDelta(t, tc.want, got, 1e-9, "frame %d", tc.frame)
	}
}

func TestInterpolateStringTrack(t *testing.T) {
	kfs := keyframes(
		0, "#ff0000", document.EasingLinear,
		10, "#00ff00", document.EasingLinear,
	)
	_, ok := sampleNumber(kfs, 5)
	assert.False(t, ok)
	for frame, want := range map[int]string{-3: "#ff0000", 9: "#ff0000", 10: "#00ff00", 99: "#00ff00"} {
		got, ok := sampleString(kfs, frame)
		require.True(t, ok)
		assert.Equal(t, want, got, "frame %d", frame)
	}
}

func TestEasingEndpoints(t *testing.T) {
	easings := []document.EasingType{
		document.EasingLinear, document.EasingEaseIn, document.EasingEaseOut,
		document.EasingEaseInOut, document.EasingCubicIn, document.EasingCubicOut,
		document.EasingCubicInOut, document.EasingBackIn, document.EasingBackOut,
		document.EasingBackInOut, document.EasingElasticOut, document.EasingBounceOut,
	}
	for _, e := range easings {
		t.Run(string(e), func(t *testing.T) {
			assert.InDelta(t, 0, ease(0, e), 1e-9)
			assert.InDelta(t, 1, ease(1, e), 1e-9)
		})
	}
}

func TestEvaluateSceneLoopsSymbols(t *testing.T) {
	doc := document.NewSampleDocument("proj_test")
	sceneID := doc.Project.Scenes[0]

	var spinnerID string
	for id, obj := range doc.Objects {
		if obj.Type == document.ObjectTypeSymbol {
			spinnerID = id
		}
	}
	require.NotEmpty(t, spinnerID)

	at := func(frame int) float64 {
		res := EvaluateScene(doc, sceneID, frame)
		return res.Numeric[spinnerID]["transform.r"]
	}
	assert.InDelta(t, 0, at(0), 1e-9)
	assert.InDelta(t, at(5), at(29), 1e-9, "the 24-frame symbol timeline repeats")
	assert.InDelta(t, 360, at(23), 1e-9)
}

func TestApplyOverrides(t *testing.T) {
	base := document.Transform{X: 1, Y: 2, SX: 1, SY: 1}
	got := ApplyOverridesToTransform(base, PropertyOverrides{"transform.x": 10, "transform.skewX": 5, "bogus": 1})
	assert.Equal(t, document.Transform{X: 10, Y: 2, SX: 1, SY: 1, SkewX: 5}, got)

	style := ApplyOverridesToStyle(
		document.Style{Alpha: 1, Color: "#000000"},
		PropertyOverrides{"style.alpha": 0.25},
		StringPropertyOverrides{"style.color": "#ffffff", "style.colorBr": "#ff0000"},
	)
	assert.Equal(t, document.Style{Alpha: 0.25, Color: "#ffffff", ColorBr: "#ff0000"}, style)

	z, ok := ZIndexOverride(PropertyOverrides{"zIndex": 2.5})
	assert.True(t, ok)
	assert.Equal(t, 3, z)
	_, ok = ZIndexOverride(nil)
	assert.False(t, ok)
}
