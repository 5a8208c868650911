package services

import (
	"strings"
	"testing"

	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSides(t *testing.T) {
	tests := []struct {
		label    string
		expected []string
	}{
		{"Alex Pereira vs Jiri Prochazka", []string{"Alex Pereira", "Jiri Prochazka"}},
		{"Alex Pereira vs. Jiri Prochazka", []string{"Alex Pereira", "Jiri Prochazka"}},
		{"  Holloway VS Gaethje ", []string{"Holloway", "Gaethje"}},
		{"Main event", []string{"Main event"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sides(tt.label))
		})
	}
}

func TestMarketLines(t *testing.T) {
	lines := MarketLines(pereira)

	rows := strings.Split(lines, "\n")
	require.Len(t, rows, 2)
	assert.Equal(t, "- Alex Pereira: -157 (implied 61.1%, no-vig 58.4%, EV at no-vig -4.4%)", rows[0])
	assert.Equal(t, "- Jiri Prochazka: +130 (implied 43.5%, no-vig 41.6%, EV at no-vig -4.4%)", rows[1])
}

func TestMarketLines_UnnamedSides(t *testing.T) {
	lines := MarketLines(models.Matchup{Label: "Title fight", Moneylines: []int{-200, 170}})
	assert.Contains(t, lines, "- Side 1: -200")
	assert.Contains(t, lines, "- Side 2: +170")
}

func TestBuildFightPrompt(t *testing.T) {
	pb := NewPromptBuilder(quietLogger())

	prompt, system, err := pb.BuildFightPrompt(models.ArtifactSummary, PromptContext{EventName: "UFC 303", Matchup: pereira})
	require.NoError(t, err)
	assert.Contains(t, system, "Never invent placeholder values")
	assert.Contains(t, prompt, "Event: UFC 303")
	assert.Contains(t, prompt, "Analyze exactly one fight: Alex Pereira vs Jiri Prochazka\n")
	assert.Contains(t, prompt, `Use "Alex Pereira vs Jiri Prochazka" as fightLabel`)
	assert.NotContains(t, prompt, "Card context")
	assert.NotContains(t, prompt, "{{")

	prompt, _, err = pb.BuildFightPrompt(models.ArtifactBreakdown, PromptContext{
		EventName: "UFC 303",
		Matchup:   pereira,
		Overview:  "Strikers favored.",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Break down exactly one fight: Alex Pereira vs Jiri Prochazka\n")
	assert.Contains(t, prompt, "Card context:\nStrikers favored.")
}

func TestBuildFightPrompt_UnknownArtifact(t *testing.T) {
	_, _, err := NewPromptBuilder(quietLogger()).BuildFightPrompt(models.Artifact("poster"), PromptContext{Matchup: pereira})
	assert.Error(t, err)
}

func TestBuildOverviewPrompt(t *testing.T) {
	prompt, system := NewPromptBuilder(quietLogger()).BuildOverviewPrompt(card(2))

	assert.NotEmpty(t, system)
	assert.Contains(t, prompt, "Event: Fight Night")
	assert.Contains(t, prompt, "1. Fighter 1A vs Fighter 1B (-150 / +130)")
	assert.Contains(t, prompt, "2. Fighter 2A vs Fighter 2B (-150 / +130)")
}
