package baseball

// ActionType identifies a game action.
type ActionType string

const (
	// ActionPitch is thrown by the fielding team's active pitcher.
	ActionPitch ActionType = "pitch"
	// ActionSwing is taken by the batting team's active batter.
	ActionSwing ActionType = "swing"
)

// Pitch types. They nudge the zone probability but never dominate it.
const (
	PitchTypeFastball  = "fastball"
	PitchTypeCurveball = "curveball"
	PitchTypeChangeup  = "changeup"
)

// Action is one participant input to the state machine. A pitch resolves
// a full at-bat unit with the batter simulated; a swing resolves the same
// unit with the batter committed to swinging.
type Action struct {
	Type ActionType `json:"type"`
	// PitchType is an optional pitch selection for ActionPitch.
	PitchType string `json:"pitchType,omitempty"`
	// Power is an optional swing aggression in [0, 1] for ActionSwing.
	// 0.5 is neutral; higher trades contact for extra bases.
	Power float64 `json:"power,omitempty"`
}
