package document

import "encoding/json"

type InDocument struct {
	Project   Project               `json:"project"`
	Scenes    map[string]Scene      `json:"scenes"`
	Objects   map[string]ObjectNode `json:"objects"`
	Timelines map[string]Timeline   `json:"timelines"`
	Tracks    map[string]Track      `json:"tracks"`
	Keyframes map[string]Keyframe   `json:"keyframes"`
	Assets    map[string]Asset      `json:"assets"`
}

type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      int      `json:"version"`
	FPS          int      `json:"fps"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
	Scenes       []string `json:"scenes"`
	Assets       []string `json:"assets"`
	RootTimeline string   `json:"rootTimeline"`
}

type Scene struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
	Root       string `json:"root"`
}

type ObjectType string

const (
	// ObjectTypeGroup has no quad of its own.
	ObjectTypeGroup ObjectType = "Group"
	// ObjectTypeRect is a solid quad drawn with the white texture.
	ObjectTypeRect ObjectType = "Rect"
	// ObjectTypeSprite draws a texture asset.
	ObjectTypeSprite ObjectType = "Sprite"
	// ObjectTypeSymbol is a group driven by its own nested timeline.
	ObjectTypeSymbol ObjectType = "Symbol"
)

type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	SX    float64 `json:"sx"`
	SY    float64 `json:"sy"`
	R     float64 `json:"r"`
	AX    float64 `json:"ax"`
	AY    float64 `json:"ay"`
	SkewX float64 `json:"skewX"`
	SkewY float64 `json:"skewY"`
}

// Style holds paint properties. Colors are "#RRGGBB" or "#AARRGGBB"; a
// corner color left empty falls back to Color.
type Style struct {
	Alpha   float64 `json:"alpha"`
	Color   string  `json:"color"`
	ColorUl string  `json:"colorUl,omitempty"`
	ColorUr string  `json:"colorUr,omitempty"`
	ColorBl string  `json:"colorBl,omitempty"`
	ColorBr string  `json:"colorBr,omitempty"`
}

// TexCoords is the normalized texture region: upper-left then bottom-right.
type TexCoords struct {
	ULX float64 `json:"ulx"`
	ULY float64 `json:"uly"`
	BRX float64 `json:"brx"`
	BRY float64 `json:"bry"`
}

type ObjectNode struct {
	ID            string          `json:"id"`
	Type          ObjectType      `json:"type"`
	Parent        *string         `json:"parent"`
	Children      []string        `json:"children"`
	Transform     Transform       `json:"transform"`
	Style         Style           `json:"style"`
	Width         float64         `json:"width"`
	Height        float64         `json:"height"`
	Asset         string          `json:"asset,omitempty"`
	TexCoords     *TexCoords      `json:"texCoords,omitempty"`
	Clipping      bool            `json:"clipping"`
	ZIndex        int             `json:"zIndex"`
	ForceZContext bool            `json:"forceZContext"`
	Visible       bool            `json:"visible"`
	Data          json.RawMessage `json:"data,omitempty"`
}

type Timeline struct {
	ID     string   `json:"id"`
	Length int      `json:"length"`
	Tracks []string `json:"tracks"`
}

type Track struct {
	ID       string   `json:"id"`
	ObjectID string   `json:"objectId"`
	Property string   `json:"property"`
	Keys     []string `json:"keys"`
}

type EasingType string

const (
	EasingLinear     EasingType = "linear"
	EasingEaseIn     EasingType = "easeIn"
	EasingEaseOut    EasingType = "easeOut"
	EasingEaseInOut  EasingType = "easeInOut"
	EasingCubicIn    EasingType = "cubicIn"
	EasingCubicOut   EasingType = "cubicOut"
	EasingCubicInOut EasingType = "cubicInOut"
	EasingBackIn     EasingType = "backIn"
	EasingBackOut    EasingType = "backOut"
	EasingBackInOut  EasingType = "backInOut"
	EasingElasticOut EasingType = "elasticOut"
	EasingBounceOut  EasingType = "bounceOut"
)

type Keyframe struct {
	ID     string          `json:"id"`
	Frame  int             `json:"frame"`
	Value  json.RawMessage `json:"value"`
	Easing EasingType      `json:"easing"`
}

// Asset is an image file. URL is relative to the texture directory.
type Asset struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Name string          `json:"name"`
	URL  string          `json:"url"`
	Meta json.RawMessage `json:"meta,omitempty"`
}

// NewEmptyDocument creates a document with one empty scene.
func NewEmptyDocument(projectID, projectName, sceneID, rootID, timelineID string) *InDocument {
	return &InDocument{
		Project: Project{
			ID:           projectID,
			Name:         projectName,
			Version:      1,
			FPS:          24,
			Scenes:       []string{sceneID},
			Assets:       []string{},
			RootTimeline: timelineID,
		},
		Scenes: map[string]Scene{
			sceneID: {
				ID:         sceneID,
				Name:       "Scene 1",
				Width:      1280,
				Height:     720,
				Background: "#1a1a2e",
				Root:       rootID,
			},
		},
		Objects: map[string]ObjectNode{
			rootID: {
				ID:        rootID,
				Type:      ObjectTypeGroup,
				Children:  []string{},
				Transform: Transform{SX: 1, SY: 1},
				Style:     Style{Alpha: 1},
				Width:     1280,
				Height:    720,
				Visible:   true,
			},
		},
		Timelines: map[string]Timeline{
			timelineID: {
				ID:     timelineID,
				Length: 48,
				Tracks: []string{},
			},
		},
		Tracks:    map[string]Track{},
		Keyframes: map[string]Keyframe{},
		Assets:    map[string]Asset{},
	}
}

// SymbolTimelineID extracts the nested timeline ID from a Symbol's data.
func (o *ObjectNode) SymbolTimelineID() string {
	if o.Type != ObjectTypeSymbol || len(o.Data) == 0 {
		return ""
	}
	var data struct {
		TimelineID string `json:"timelineId"`
	}
	if err := json.Unmarshal(o.Data, &data); err != nil {
		return ""
	}
	return data.TimelineID
}
