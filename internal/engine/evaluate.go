package engine

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/inamate/inamate/render-go/internal/document"
)

// PropertyOverrides holds interpolated numeric property values from keyframe evaluation.
// Keys are property paths like "transform.x", "style.alpha", "zIndex".
type PropertyOverrides map[string]float64

// StringPropertyOverrides holds step-interpolated string property values (colors).
type StringPropertyOverrides map[string]string

// EvalResult contains both numeric and string property overrides per object.
type EvalResult struct {
	Numeric map[string]PropertyOverrides
	Strings map[string]StringPropertyOverrides
}

func newEvalResult() EvalResult {
	return EvalResult{
		Numeric: make(map[string]PropertyOverrides),
		Strings: make(map[string]StringPropertyOverrides),
	}
}

// EvaluateTimeline evaluates all tracks in a timeline at the given frame.
// Returns numeric overrides (interpolated) and string overrides (step/hold).
func EvaluateTimeline(doc *document.InDocument, timelineID string, frame int) EvalResult {
	result := newEvalResult()
	evaluateInto(doc, timelineID, frame, result)
	return result
}

// EvaluateScene evaluates the root timeline and the nested timeline of every
// symbol reachable from the scene root. Symbol timelines loop on their own
// length.
func EvaluateScene(doc *document.InDocument, sceneID string, frame int) EvalResult {
	result := newEvalResult()
	evaluateInto(doc, doc.Project.RootTimeline, frame, result)

	scene, ok := doc.Scenes[sceneID]
	if !ok {
		return result
	}
	stack := []string{scene.Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		obj, ok := doc.Objects[id]
		if !ok {
			continue
		}
		if tlID := obj.SymbolTimelineID(); tlID != "" {
			local := frame
			if tl, ok := doc.Timelines[tlID]; ok && tl.Length > 0 {
				local = frame % tl.Length
			}
			evaluateInto(doc, tlID, local, result)
		}
		stack = append(stack, obj.Children...)
	}
	return result
}

func evaluateInto(doc *document.InDocument, timelineID string, frame int, result EvalResult) {
	timeline, ok := doc.Timelines[timelineID]
	if !ok {
		return
	}

	for _, trackID := range timeline.Tracks {
		track, ok := doc.Tracks[trackID]
		if !ok {
			continue
		}
		keys := trackKeys(doc, &track)
		if len(keys) == 0 {
			continue
		}

		// Numeric tracks interpolate; anything else (colors) holds.
		if v, ok := sampleNumber(keys, frame); ok {
			if result.Numeric[track.ObjectID] == nil {
				result.Numeric[track.ObjectID] = make(PropertyOverrides)
			}
			result.Numeric[track.ObjectID][track.Property] = v
			continue
		}
		if v, ok := sampleString(keys, frame); ok {
			if result.Strings[track.ObjectID] == nil {
				result.Strings[track.ObjectID] = make(StringPropertyOverrides)
			}
			result.Strings[track.ObjectID][track.Property] = v
		}
	}
}

// trackKeys returns the track's keyframes ordered by frame. Dangling key
// IDs are skipped.
func trackKeys(doc *document.InDocument, track *document.Track) []document.Keyframe {
	keys := make([]document.Keyframe, 0, len(track.Keys))
	for _, id := range track.Keys {
		if kf, ok := doc.Keyframes[id]; ok {
			keys = append(keys, kf)
		}
	}
	slices.SortStableFunc(keys, func(a, b document.Keyframe) int {
		return a.Frame - b.Frame
	})
	return keys
}

// segment returns the indices of the keys at or before and at or after
// frame. Either is -1 when frame lies outside the keys.
func segment(keys []document.Keyframe, frame int) (prev, next int) {
	next, _ = slices.BinarySearchFunc(keys, frame, func(k document.Keyframe, f int) int {
		return k.Frame - f
	})
	// BinarySearchFunc finds the first key >= frame; step past equal keys
	// so prev is the last key <= frame.
	prev = next
	for prev < len(keys) && keys[prev].Frame == frame {
		prev++
	}
	prev--
	if next == len(keys) {
		next = -1
	}
	return prev, next
}

// sampleNumber evaluates numeric keys at frame, holding the first and last
// values outside the keyed range.
func sampleNumber(keys []document.Keyframe, frame int) (float64, bool) {
	prev, next := segment(keys, frame)
	switch {
	case prev < 0:
		return keyNumber(keys[next])
	case next < 0 || keys[prev].Frame == frame:
		return keyNumber(keys[prev])
	}
	from, ok := keyNumber(keys[prev])
	if !ok {
		return 0, false
	}
	to, ok := keyNumber(keys[next])
	if !ok {
		return from, true
	}
	span := keys[next].Frame - keys[prev].Frame
	t := ease(float64(frame-keys[prev].Frame)/float64(span), keys[prev].Easing)
	return from + (to-from)*t, true
}

// sampleString holds the value of the last key at or before frame, or the
// first key's value before the keyed range.
func sampleString(keys []document.Keyframe, frame int) (string, bool) {
	prev, _ := segment(keys, frame)
	prev = max(prev, 0)
	var v string
	if err := json.Unmarshal(keys[prev].Value, &v); err != nil {
		return "", false
	}
	return v, true
}

func keyNumber(k document.Keyframe) (float64, bool) {
	var v float64
	if err := json.Unmarshal(k.Value, &v); err != nil {
		return 0, false
	}
	return v, true
}

const (
	backC1 = 1.70158
	backC3 = backC1 + 1
	backC2 = backC1 * 1.525
)

// easings maps a keyframe easing to its curve on [0, 1]. Unknown names
// fall back to linear.
var easings = map[document.EasingType]func(float64) float64{
	document.EasingEaseIn:  func(t float64) float64 { return t * t },
	document.EasingEaseOut: func(t float64) float64 { return t * (2 - t) },
	document.EasingEaseInOut: func(t float64) float64 {
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	},
	document.EasingCubicIn:  func(t float64) float64 { return t * t * t },
	document.EasingCubicOut: func(t float64) float64 { return 1 - math.Pow(1-t, 3) },
	document.EasingCubicInOut: func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - math.Pow(2-2*t, 3)/2
	},
	document.EasingBackIn: func(t float64) float64 { return backC3*t*t*t - backC1*t*t },
	document.EasingBackOut: func(t float64) float64 {
		u := t - 1
		return 1 + backC3*u*u*u + backC1*u*u
	},
	document.EasingBackInOut: func(t float64) float64 {
		if t < 0.5 {
			return math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2) / 2
		}
		return (math.Pow(2*t-2, 2)*((backC2+1)*(2*t-2)+backC2) + 2) / 2
	},
	document.EasingElasticOut: func(t float64) float64 {
		if t == 0 || t == 1 {
			return t
		}
		return math.Pow(2, -10*t)*math.Sin((10*t-0.75)*2*math.Pi/3) + 1
	},
	document.EasingBounceOut: bounceOut,
}

func ease(t float64, e document.EasingType) float64 {
	if f, ok := easings[e]; ok {
		return f(t)
	}
	return t
}

// bounceOut is the four-parabola bounce curve.
func bounceOut(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// ApplyOverridesToTransform applies property overrides to a base transform.
func ApplyOverridesToTransform(base document.Transform, overrides PropertyOverrides) document.Transform {
	result := base
	fields := map[string]*float64{
		"transform.x":     &result.X,
		"transform.y":     &result.Y,
		"transform.sx":    &result.SX,
		"transform.sy":    &result.SY,
		"transform.r":     &result.R,
		"transform.ax":    &result.AX,
		"transform.ay":    &result.AY,
		"transform.skewX": &result.SkewX,
		"transform.skewY": &result.SkewY,
	}
	for k, v := range overrides {
		if f, ok := fields[k]; ok {
			*f = v
		}
	}
	return result
}

// ApplyOverridesToStyle applies numeric and string overrides to a base style.
func ApplyOverridesToStyle(base document.Style, num PropertyOverrides, str StringPropertyOverrides) document.Style {
	result := base
	if v, ok := num["style.alpha"]; ok {
		result.Alpha = v
	}
	for k, v := range str {
		switch k {
		case "style.color":
			result.Color = v
		case "style.colorUl":
			result.ColorUl = v
		case "style.colorUr":
			result.ColorUr = v
		case "style.colorBl":
			result.ColorBl = v
		case "style.colorBr":
			result.ColorBr = v
		}
	}
	return result
}

// ZIndexOverride returns the animated z-index, rounded to the nearest
// integer.
func ZIndexOverride(overrides PropertyOverrides) (int, bool) {
	v, ok := overrides["zIndex"]
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}
