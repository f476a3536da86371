package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/inamate/inamate/render-go/internal/typeid"
)

func NewSampleDocument(projectID string) *InDocument {
	now := time.Now().UTC().Format(time.RFC3339)

	sceneID := typeid.NewSceneID()
	rootID := typeid.NewObjectID()
	backgroundID := typeid.NewObjectID()
	gradientID := typeid.NewObjectID()
	timelineID := typeid.NewTimelineID()

	// Rotated clipping panel with an oversized child.
	panelID := typeid.NewObjectID()
	panelFillID := typeid.NewObjectID()
	panelStripeID := typeid.NewObjectID()

	// Overlapping cards in a plain group; their z-indices put them in the
	// root's paint list.
	cardsID := typeid.NewObjectID()
	cardAID := typeid.NewObjectID()
	cardBID := typeid.NewObjectID()
	cardCID := typeid.NewObjectID()

	// Spinner symbol
	spinnerID := typeid.NewObjectID()
	spinnerBarID := typeid.NewObjectID()
	spinnerDotID := typeid.NewObjectID()
	spinnerTimelineID := typeid.NewTimelineID()
	spinnerTrackID := typeid.NewTrackID()
	kf0ID := typeid.NewKeyframeID()
	kf1ID := typeid.NewKeyframeID()

	// Root timeline: card B rises above the others mid-way, the gradient
	// fades out and back in.
	zTrackID := typeid.NewTrackID()
	zKf0ID := typeid.NewKeyframeID()
	zKf1ID := typeid.NewKeyframeID()
	fadeTrackID := typeid.NewTrackID()
	fadeKf0ID := typeid.NewKeyframeID()
	fadeKf1ID := typeid.NewKeyframeID()
	fadeKf2ID := typeid.NewKeyframeID()

	rootIDPtr := &rootID
	panelIDPtr := &panelID
	cardsIDPtr := &cardsID
	spinnerIDPtr := &spinnerID

	unit := Transform{SX: 1, SY: 1}
	at := func(x, y float64) Transform {
		return Transform{X: x, Y: y, SX: 1, SY: 1}
	}

	return &InDocument{
		Project: Project{
			ID:           projectID,
			Name:         "Untitled",
			Version:      1,
			FPS:          24,
			CreatedAt:    now,
			UpdatedAt:    now,
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
				Children:  []string{backgroundID, gradientID, panelID, cardsID, spinnerID},
				Transform: unit,
				Style:     Style{Alpha: 1},
				Width:     1280,
				Height:    720,
				Visible:   true,
			},
			backgroundID: {
				ID:        backgroundID,
				Type:      ObjectTypeRect,
				Parent:    rootIDPtr,
				Children:  []string{},
				Transform: unit,
				Style:     Style{Alpha: 1, Color: "#1a1a2e"},
				Width:     1280,
				Height:    720,
				Visible:   true,
			},
			gradientID: {
				ID:        gradientID,
				Type:      ObjectTypeRect,
				Parent:    rootIDPtr,
				Children:  []string{},
				Transform: at(80, 80),
				Style: Style{
					Alpha:   1,
					Color:   "#e94560",
					ColorUr: "#0f3460",
					ColorBr: "#53d769",
					ColorBl: "#f5a623",
				},
				Width:   240,
				Height:  160,
				Visible: true,
			},
			panelID: {
				ID:       panelID,
				Type:     ObjectTypeRect,
				Parent:   rootIDPtr,
				Children: []string{panelFillID, panelStripeID},
				Transform: Transform{
					X: 560, Y: 120, SX: 1, SY: 1, R: 15,
				},
				Style:    Style{Alpha: 1, Color: "#16213e"},
				Width:    300,
				Height:   200,
				Clipping: true,
				Visible:  true,
			},
			panelFillID: {
				ID:        panelFillID,
				Type:      ObjectTypeRect,
				Parent:    panelIDPtr,
				Children:  []string{},
				Transform: at(150, 100),
				Style:     Style{Alpha: 0.8, Color: "#0f3460"},
				Width:     300,
				Height:    200,
				Visible:   true,
			},
			panelStripeID: {
				ID:       panelStripeID,
				Type:     ObjectTypeRect,
				Parent:   panelIDPtr,
				Children: []string{},
				Transform: Transform{
					X: -40, Y: 60, SX: 1, SY: 1, R: -30,
				},
				Style:   Style{Alpha: 1, Color: "#e94560"},
				Width:   420,
				Height:  40,
				Visible: true,
			},
			cardsID: {
				ID:        cardsID,
				Type:      ObjectTypeGroup,
				Parent:    rootIDPtr,
				Children:  []string{cardAID, cardBID, cardCID},
				Transform: at(120, 380),
				Style:     Style{Alpha: 1},
				Visible:   true,
			},
			cardAID: {
				ID:        cardAID,
				Type:      ObjectTypeRect,
				Parent:    cardsIDPtr,
				Children:  []string{},
				Transform: at(0, 0),
				Style:     Style{Alpha: 1, Color: "#f5a623"},
				Width:     160,
				Height:    220,
				ZIndex:    2,
				Visible:   true,
			},
			cardBID: {
				ID:        cardBID,
				Type:      ObjectTypeRect,
				Parent:    cardsIDPtr,
				Children:  []string{},
				Transform: at(60, 30),
				Style:     Style{Alpha: 1, Color: "#bd10e0"},
				Width:     160,
				Height:    220,
				ZIndex:    1,
				Visible:   true,
			},
			cardCID: {
				ID:        cardCID,
				Type:      ObjectTypeRect,
				Parent:    cardsIDPtr,
				Children:  []string{},
				Transform: at(120, 60),
				Style:     Style{Alpha: 1, Color: "#53d769"},
				Width:     160,
				Height:    220,
				ZIndex:    3,
				Visible:   true,
			},
			spinnerID: {
				ID:        spinnerID,
				Type:      ObjectTypeSymbol,
				Parent:    rootIDPtr,
				Children:  []string{spinnerBarID, spinnerDotID},
				Transform: at(1000, 480),
				Style:     Style{Alpha: 1},
				Visible:   true,
				Data:      json.RawMessage(fmt.Sprintf(`{"timelineId": "%s"}`, spinnerTimelineID)),
			},
			spinnerBarID: {
				ID:        spinnerBarID,
				Type:      ObjectTypeRect,
				Parent:    spinnerIDPtr,
				Children:  []string{},
				Transform: at(-30, -50),
				Style:     Style{Alpha: 1, Color: "#f5a623"},
				Width:     60,
				Height:    100,
				Visible:   true,
			},
			spinnerDotID: {
				ID:        spinnerDotID,
				Type:      ObjectTypeRect,
				Parent:    spinnerIDPtr,
				Children:  []string{},
				Transform: at(-20, -90),
				Style:     Style{Alpha: 1, Color: "#bd10e0"},
				Width:     40,
				Height:    40,
				Visible:   true,
			},
		},
		Timelines: map[string]Timeline{
			timelineID: {
				ID:     timelineID,
				Length: 48,
				Tracks: []string{zTrackID, fadeTrackID},
			},
			spinnerTimelineID: {
				ID:     spinnerTimelineID,
				Length: 24,
				Tracks: []string{spinnerTrackID},
			},
		},
		Tracks: map[string]Track{
			spinnerTrackID: {
				ID:       spinnerTrackID,
				ObjectID: spinnerID,
				Property: "transform.r",
				Keys:     []string{kf0ID, kf1ID},
			},
			zTrackID: {
				ID:       zTrackID,
				ObjectID: cardBID,
				Property: "zIndex",
				Keys:     []string{zKf0ID, zKf1ID},
			},
			fadeTrackID: {
				ID:       fadeTrackID,
				ObjectID: gradientID,
				Property: "style.alpha",
				Keys:     []string{fadeKf0ID, fadeKf1ID, fadeKf2ID},
			},
		},
		Keyframes: map[string]Keyframe{
			kf0ID:     {ID: kf0ID, Frame: 0, Value: json.RawMessage(`0`), Easing: EasingLinear},
			kf1ID:     {ID: kf1ID, Frame: 23, Value: json.RawMessage(`360`), Easing: EasingLinear},
			zKf0ID:    {ID: zKf0ID, Frame: 0, Value: json.RawMessage(`1`), Easing: EasingLinear},
			zKf1ID:    {ID: zKf1ID, Frame: 24, Value: json.RawMessage(`4`), Easing: EasingLinear},
			fadeKf0ID: {ID: fadeKf0ID, Frame: 0, Value: json.RawMessage(`1`), Easing: EasingEaseInOut},
			fadeKf1ID: {ID: fadeKf1ID, Frame: 24, Value: json.RawMessage(`0`), Easing: EasingEaseInOut},
			fadeKf2ID: {ID: fadeKf2ID, Frame: 47, Value: json.RawMessage(`1`), Easing: EasingLinear},
		},
		Assets: map[string]Asset{},
	}
}
