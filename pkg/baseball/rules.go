package baseball

// Rules is the set of named rule toggles for one game. It is created at
// game start and never mutated afterwards.
type Rules struct {
	// RegulationInnings is the number of innings in a regulation game.
	RegulationInnings int `json:"regulationInnings"`
	// UnlimitedFouls keeps a foul ball at two strikes from ending the
	// at-bat (the sandlot house rule). With it off, a two-strike foul
	// is a strikeout.
	UnlimitedFouls bool `json:"unlimitedFouls"`
	// MercyRuleRuns ends the game early when the lead reaches this many
	// runs after a completed inning. Zero disables the mercy rule.
	MercyRuleRuns int `json:"mercyRuleRuns"`
	// MinPitchQuality is the floor that pitcher fatigue can never push
	// pitch quality below.
	MinPitchQuality float64 `json:"minPitchQuality"`
}

// DefaultRules returns the standard nine-inning configuration.
func DefaultRules() Rules {
	return Rules{
		RegulationInnings: 9,
		UnlimitedFouls:    true,
		MercyRuleRuns:     10,
		MinPitchQuality:   0.35,
	}
}

// normalized fills in zero values that would make a game degenerate.
func (r Rules) normalized() Rules {
	if r.RegulationInnings < 1 {
		r.RegulationInnings = 9
	}
	if r.MinPitchQuality <= 0 || r.MinPitchQuality > 1 {
		r.MinPitchQuality = 0.35
	}
	if r.MercyRuleRuns < 0 {
		r.MercyRuleRuns = 0
	}
	return r
}
