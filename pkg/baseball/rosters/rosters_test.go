package rosters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderLineups(t *testing.T) {
	provider := NewStaticProvider()

	home, err := provider.Lineup("home")
	require.NoError(t, err)
	assert.Equal(t, "Benny", home[0].Name)

	away, err := provider.Lineup("away")
	require.NoError(t, err)
	assert.NotEqual(t, home, away)

	for _, player := range home {
		assert.NotEmpty(t, player.Name)
		assert.Greater(t, player.Contact, 0)
		assert.Greater(t, player.Power, 0)
		assert.Greater(t, player.Stamina, 0)
	}

	// Unknown teams fall back to the home lineup.
	fallback, err := provider.Lineup("visitors")
	require.NoError(t, err)
	assert.Equal(t, home, fallback)
}

func TestNewProviderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rosters.json")
	content := `{
		"home": [
			{"name": "P1", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P2", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P3", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P4", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P5", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P6", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P7", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P8", "contact": 50, "power": 50, "stamina": 50},
			{"name": "P9", "contact": 50, "power": 50, "stamina": 50}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	provider, err := NewProviderFromFile(path)
	require.NoError(t, err)

	lineup, err := provider.Lineup("home")
	require.NoError(t, err)
	assert.Equal(t, "P1", lineup[0].Name)
	assert.Equal(t, "P9", lineup[8].Name)

	_, err = NewProviderFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
