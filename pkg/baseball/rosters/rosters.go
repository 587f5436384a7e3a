package rosters

import (
	"encoding/json"
	"fmt"
	"os"
)

// Player is one roster slot. Ratings are on a 0-100 scale and feed the
// state machine's probability weights; the engine treats them as opaque
// inputs.
type Player struct {
	Name    string `json:"name"`
	Contact int    `json:"contact"`
	Power   int    `json:"power"`
	Stamina int    `json:"stamina"`
}

// Provider supplies a nine-player lineup for a named team.
type Provider interface {
	Lineup(team string) ([9]Player, error)
}

// StaticProvider serves lineups from a fixed in-memory table.
type StaticProvider struct {
	lineups map[string][9]Player
}

// NewStaticProvider returns a provider preloaded with the default
// sandlot squads. Any team name not in the table falls back to a
// balanced default lineup.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		lineups: map[string][9]Player{
			"home": {
				{Name: "Benny", Contact: 82, Power: 74, Stamina: 70},
				{Name: "Smalls", Contact: 55, Power: 40, Stamina: 50},
				{Name: "Ham", Contact: 60, Power: 85, Stamina: 45},
				{Name: "Squints", Contact: 65, Power: 50, Stamina: 55},
				{Name: "Yeah-Yeah", Contact: 70, Power: 45, Stamina: 60},
				{Name: "Kenny", Contact: 62, Power: 58, Stamina: 88},
				{Name: "Bertram", Contact: 58, Power: 62, Stamina: 52},
				{Name: "Timmy", Contact: 54, Power: 48, Stamina: 50},
				{Name: "Tommy", Contact: 52, Power: 44, Stamina: 48},
			},
			"away": {
				{Name: "Phillips", Contact: 75, Power: 68, Stamina: 72},
				{Name: "Grady", Contact: 64, Power: 52, Stamina: 58},
				{Name: "Sanchez", Contact: 70, Power: 60, Stamina: 80},
				{Name: "Palumbo", Contact: 58, Power: 76, Stamina: 50},
				{Name: "Webb", Contact: 66, Power: 48, Stamina: 62},
				{Name: "Mercer", Contact: 60, Power: 64, Stamina: 54},
				{Name: "Ortiz", Contact: 68, Power: 56, Stamina: 66},
				{Name: "Lane", Contact: 55, Power: 50, Stamina: 52},
				{Name: "Doyle", Contact: 53, Power: 46, Stamina: 49},
			},
		},
	}
}

// NewProviderFromFile loads lineups from a JSON file mapping team name
// to a nine-player array.
func NewProviderFromFile(path string) (*StaticProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %v", err)
	}

	lineups := make(map[string][9]Player)
	if err := json.Unmarshal(b, &lineups); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %v", path, err)
	}

	return &StaticProvider{lineups: lineups}, nil
}

func (p *StaticProvider) Lineup(team string) ([9]Player, error) {
	if lineup, ok := p.lineups[team]; ok {
		return lineup, nil
	}
	if lineup, ok := p.lineups["home"]; ok {
		return lineup, nil
	}
	return [9]Player{}, fmt.Errorf("no lineup for team %q", team)
}
