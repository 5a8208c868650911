package feed

import (
	"path/filepath"
	"testing"

	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(v int) *int { return &v }

func TestConvert(t *testing.T) {
	inactive := false
	data := EventData{
		EventID: 860,
		Name:    " UFC Fight Night ",
		Fights: []FightData{
			{FightID: 2, Order: 2, Fighters: []FighterData{
				{FirstName: "Caio", LastName: "Borralho", Moneyline: line(-230)},
				{FirstName: "Jared", LastName: "Cannonier", Moneyline: line(190)},
			}},
			{FightID: 1, Order: 1, WeightClass: "Bantamweight", Fighters: []FighterData{
				{FirstName: "Jose", LastName: "Johnson", Moneyline: line(115)},
				{FirstName: "Da'Mon", LastName: "Blackshear", Moneyline: line(-140)},
			}},
			{FightID: 3, Order: 3, Fighters: []FighterData{
				{FirstName: "Tatsuro", LastName: "Taira", Moneyline: line(-300)},
				{FirstName: "Alex", LastName: "Perez"},
			}},
			{FightID: 4, Order: 4, Active: &inactive, Fighters: []FighterData{
				{FirstName: "A", LastName: "B", Moneyline: line(-110)},
				{FirstName: "C", LastName: "D", Moneyline: line(-110)},
			}},
			{FightID: 5, Order: 5, Fighters: []FighterData{
				{FirstName: "Solo", LastName: "Fighter", Moneyline: line(-110)},
			}},
		},
	}

	event, skipped := Convert(data)

	assert.Equal(t, "860", event.ID)
	assert.Equal(t, "UFC Fight Night", event.Name)
	assert.Equal(t, []models.Matchup{
		{ID: "1", Label: "Jose Johnson vs Da'Mon Blackshear", Moneylines: []int{115, -140}, WeightClass: "Bantamweight"},
		{ID: "2", Label: "Caio Borralho vs Jared Cannonier", Moneylines: []int{-230, 190}},
	}, event.Matchups)

	require.Len(t, skipped, 3)
	assert.Equal(t, Skipped{FightID: 3, Label: "Tatsuro Taira vs Alex Perez", Reason: "missing moneyline"}, skipped[0])
	assert.Equal(t, "fight is inactive", skipped[1].Reason)
	assert.Equal(t, "fewer than two fighters", skipped[2].Reason)
	require.NoError(t, event.Validate())
}

func TestConvert_DoesNotReorderInput(t *testing.T) {
	data := EventData{Fights: []FightData{{Order: 2}, {Order: 1}}}
	Convert(data)
	assert.Equal(t, 2, data.Fights[0].Order)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Alex Pereira vs Jiri Prochazka", Label([]FighterData{
		{FirstName: "Alex", LastName: "Pereira"},
		{FirstName: "Jiri", LastName: "Prochazka"},
	}))
	assert.Equal(t, "Mononym vs Jon Jones", Label([]FighterData{
		{LastName: "Mononym"},
		{FirstName: "Jon", LastName: "Jones"},
	}))
}

func TestLoadCard_Native(t *testing.T) {
	event, skipped, err := LoadCard(filepath.Join("testdata", "ufc303.yaml"))
	require.NoError(t, err)

	assert.Empty(t, skipped)
	assert.Equal(t, "ufc-303", event.ID)
	assert.Equal(t, "UFC 303", event.Name)
	require.Len(t, event.Matchups, 2)
	assert.Equal(t, models.Matchup{
		ID:          "1",
		Label:       "Alex Pereira vs Jiri Prochazka",
		Moneylines:  []int{-157, 130},
		WeightClass: "Light Heavyweight",
	}, event.Matchups[0])
	assert.Equal(t, []int{-192, 160}, event.Matchups[1].Moneylines)
}

func TestLoadCard_ProviderJSON(t *testing.T) {
	event, skipped, err := LoadCard(filepath.Join("testdata", "provider_event.json"))
	require.NoError(t, err)

	assert.Equal(t, "860", event.ID)
	require.Len(t, event.Matchups, 2)
	assert.Equal(t, "Da'Mon Blackshear vs Jose Johnson", event.Matchups[0].Label)
	assert.Equal(t, "Jared Cannonier vs Caio Borralho", event.Matchups[1].Label)
	assert.Equal(t, []int{190, -230}, event.Matchups[1].Moneylines)
	require.Len(t, skipped, 2)
	assert.Equal(t, 13, skipped[0].FightID)
	assert.Equal(t, 14, skipped[1].FightID)
}

func TestParseCard_Errors(t *testing.T) {
	_, _, err := ParseCard([]byte("   "))
	assert.Error(t, err)

	_, _, err = ParseCard([]byte("name: [unclosed"))
	assert.Error(t, err)

	_, _, err = LoadCard(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestParseCard_EmptyMatchups(t *testing.T) {
	event, _, err := ParseCard([]byte("name: Empty card\n"))
	require.NoError(t, err)
	assert.NotNil(t, event.Matchups)
	assert.Empty(t, event.Matchups)
}
