package services

import (
	"sort"

	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stitts-dev/fight-edge/pkg/oddsmath"
)

// UnrankedEdge is the priority given to a summary whose expected value cannot
// be read. A bet cannot lose more than its stake, so parsed values are floored here too.
const UnrankedEdge = -100.0

// EdgeValue is the numeric expected value percentage used for ranking.
func EdgeValue(s models.EdgeSummary) float64 {
	v, ok := oddsmath.ParseSignedPercent(s.ExpectedValue)
	if !ok || v < UnrankedEdge {
		return UnrankedEdge
	}
	return v
}

// TopBet returns the summary with the highest expected value. Ties go to the
// earliest summary. An empty input has no top bet.
func TopBet(summaries []models.EdgeSummary) (models.EdgeSummary, bool) {
	if len(summaries) == 0 {
		return models.EdgeSummary{}, false
	}

	best := 0
	bestValue := EdgeValue(summaries[0])
	for i := 1; i < len(summaries); i++ {
		if v := EdgeValue(summaries[i]); v > bestValue {
			best, bestValue = i, v
		}
	}
	return summaries[best], true
}

// RankSummaries returns a copy ordered by expected value, highest first, keeping
// card order between equal values. Its first element is always TopBet's answer.
func RankSummaries(summaries []models.EdgeSummary) []models.EdgeSummary {
	ranked := make([]models.EdgeSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return EdgeValue(ranked[i]) > EdgeValue(ranked[j])
	})
	return ranked
}

// BetCount counts summaries that recommend an actual bet.
func BetCount(summaries []models.EdgeSummary) int {
	n := 0
	for _, s := range summaries {
		if s.IsBet() {
			n++
		}
	}
	return n
}
