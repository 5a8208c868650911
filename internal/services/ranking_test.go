package services

import (
	"testing"

	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(label, ev string) models.EdgeSummary {
	return models.EdgeSummary{FightLabel: label, ExpectedValue: ev, RecommendedBet: label + " ML"}
}

func TestTopBet(t *testing.T) {
	tests := []struct {
		name      string
		summaries []models.EdgeSummary
		expected  string
	}{
		{
			name:      "highest expected value wins",
			summaries: []models.EdgeSummary{edge("A", "+10%"), edge("B", "+28%"), edge("C", "+5%")},
			expected:  "B",
		},
		{
			name:      "ties go to the earliest",
			summaries: []models.EdgeSummary{edge("A", "+7%"), edge("B", "+12.5%"), edge("C", "+12.5%")},
			expected:  "B",
		},
		{
			name:      "negative values still rank",
			summaries: []models.EdgeSummary{edge("A", "-4%"), edge("B", "-1.5%")},
			expected:  "B",
		},
		{
			name:      "unparseable ranks below any value",
			summaries: []models.EdgeSummary{edge("A", "strong"), edge("B", "-60%")},
			expected:  "B",
		},
		{
			name:      "all unparseable keeps the first",
			summaries: []models.EdgeSummary{edge("A", "n/a"), edge("B", "")},
			expected:  "A",
		},
		{
			name:      "single summary",
			summaries: []models.EdgeSummary{edge("A", "+3%")},
			expected:  "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, ok := TopBet(tt.summaries)
			require.True(t, ok)
			assert.Equal(t, tt.expected, top.FightLabel)

			ranked := RankSummaries(tt.summaries)
			require.Len(t, ranked, len(tt.summaries))
			assert.Equal(t, top, ranked[0])
		})
	}
}

func TestTopBet_Empty(t *testing.T) {
	_, ok := TopBet(nil)
	assert.False(t, ok)
	_, ok = TopBet([]models.EdgeSummary{})
	assert.False(t, ok)
}

func TestRankSummaries_StableAndNonMutating(t *testing.T) {
	input := []models.EdgeSummary{edge("A", "+2%"), edge("B", "+9%"), edge("C", "+2%"), edge("D", "junk")}

	ranked := RankSummaries(input)

	assert.Equal(t, []string{"B", "A", "C", "D"}, summaryLabels(ranked))
	assert.Equal(t, []string{"A", "B", "C", "D"}, summaryLabels(input))
}

func TestEdgeValue(t *testing.T) {
	assert.Equal(t, 28.0, EdgeValue(edge("A", "+28%")))
	assert.Equal(t, -3.5, EdgeValue(edge("A", "-3.5%")))
	assert.Equal(t, UnrankedEdge, EdgeValue(edge("A", "big")))
	assert.Equal(t, UnrankedEdge, EdgeValue(edge("A", "-250%")))
}

func TestBetCount(t *testing.T) {
	summaries := []models.EdgeSummary{
		edge("A", "+5%"),
		{FightLabel: "B", RecommendedBet: models.NoBet},
		edge("C", "+1%"),
	}
	assert.Equal(t, 2, BetCount(summaries))
	assert.Equal(t, 0, BetCount(nil))
}
