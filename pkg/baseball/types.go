package baseball

import (
	"github.com/sandlotlabs/dugout/pkg/baseball/rosters"
)

// Half identifies which half of the inning is being played.
type Half string

const (
	HalfTop    Half = "top"
	HalfBottom Half = "bottom"
)

// Side identifies one of the two teams in a game.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusPending            Status = "pending"
	StatusInProgress         Status = "in_progress"
	StatusBetweenHalfInnings Status = "between_half_innings"
	StatusComplete           Status = "complete"
)

// Runner identifies a batting-team roster slot occupying a base.
type Runner struct {
	Slot int    `json:"slot"`
	Name string `json:"name"`
}

// TeamState holds one team's half of the game state.
type TeamState struct {
	Name               string            `json:"name"`
	Score              int               `json:"score"`
	Hits               int               `json:"hits"`
	Errors             int               `json:"errors"`
	Lineup             [9]rosters.Player `json:"lineup"`
	CurrentBatterIndex int               `json:"currentBatterIndex"`
	PitcherIndex       int               `json:"pitcherIndex"`
	PitchCount         int               `json:"pitchCount"`
}

// CurrentBatter returns the player currently due up.
func (t *TeamState) CurrentBatter() rosters.Player {
	return t.Lineup[t.CurrentBatterIndex]
}

// Pitcher returns the active pitcher.
func (t *TeamState) Pitcher() rosters.Player {
	return t.Lineup[t.PitcherIndex]
}

// GameState is the full state of one game. It is treated as an immutable
// aggregate: Apply clones it before making any change, so a *GameState
// handed out by the state machine is never mutated afterwards.
type GameState struct {
	Inning  int        `json:"inning"`
	Half    Half       `json:"half"`
	Balls   int        `json:"balls"`
	Strikes int        `json:"strikes"`
	Outs    int        `json:"outs"`
	Bases   [3]*Runner `json:"bases"`
	Home    TeamState  `json:"home"`
	Away    TeamState  `json:"away"`
	Status  Status     `json:"status"`
	Rules   Rules      `json:"rules"`

	// StartedAt and LastActionAt are unix milliseconds, used for
	// staleness detection only. They never affect gameplay.
	StartedAt    int64 `json:"startedAt"`
	LastActionAt int64 `json:"lastActionAt"`
}

// NewGameState creates a pending game with the given lineups and rules.
func NewGameState(rules Rules, home, away [9]rosters.Player, homeName, awayName string) *GameState {
	return &GameState{
		Inning: 1,
		Half:   HalfTop,
		Home: TeamState{
			Name:   homeName,
			Lineup: home,
		},
		Away: TeamState{
			Name:   awayName,
			Lineup: away,
		},
		Status: StatusPending,
		Rules:  rules.normalized(),
	}
}

// BattingSide returns the side currently at bat. The away team bats in
// the top of every inning.
func (s *GameState) BattingSide() Side {
	if s.Half == HalfTop {
		return SideAway
	}
	return SideHome
}

// FieldingSide returns the side currently in the field.
func (s *GameState) FieldingSide() Side {
	if s.Half == HalfTop {
		return SideHome
	}
	return SideAway
}

// Team returns the team state for a side.
func (s *GameState) Team(side Side) *TeamState {
	if side == SideHome {
		return &s.Home
	}
	return &s.Away
}

func (s *GameState) battingTeam() *TeamState {
	return s.Team(s.BattingSide())
}

func (s *GameState) fieldingTeam() *TeamState {
	return s.Team(s.FieldingSide())
}

// Clone returns a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	next := *s
	for i, r := range s.Bases {
		if r == nil {
			continue
		}
		runner := *r
		next.Bases[i] = &runner
	}
	return &next
}
