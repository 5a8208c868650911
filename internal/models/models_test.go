package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchupValidate(t *testing.T) {
	tests := []struct {
		name    string
		matchup Matchup
		wantErr bool
	}{
		{"valid", Matchup{Label: "Jon Jones vs Stipe Miocic", Moneylines: []int{-250, 200}}, false},
		{"single moneyline", Matchup{Label: "A vs B", Moneylines: []int{-110}}, false},
		{"empty label", Matchup{Label: "", Moneylines: []int{-110, -110}}, true},
		{"blank label", Matchup{Label: "   ", Moneylines: []int{-110, -110}}, true},
		{"no moneylines", Matchup{Label: "A vs B"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.matchup.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInputInvalid)

			var genErr *GenerationError
			require.True(t, errors.As(err, &genErr))
			assert.Equal(t, KindInputInvalid, genErr.Kind)
		})
	}
}

func TestEventValidate_ReportsPosition(t *testing.T) {
	event := Event{
		Name: "UFC 300",
		Matchups: []Matchup{
			{Label: "A vs B", Moneylines: []int{-120, 100}},
			{Label: "C vs D"},
		},
	}

	err := event.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputInvalid)
	assert.Contains(t, err.Error(), "matchup 2")
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("status 529")
	err := &GenerationError{
		Kind:         KindBackendUnavailable,
		Artifact:     ArtifactSummary,
		MatchupLabel: "A vs B",
		Cause:        cause,
	}

	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInputInvalid)
	assert.True(t, err.Retriable())
	assert.Equal(t, `backend_unavailable: summary "A vs B": status 529`, err.Error())

	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)
	assert.JSONEq(t, `{"kind":"backend_unavailable","artifact":"summary","matchup":"A vs B","message":"status 529"}`, string(data))
}

func TestResult(t *testing.T) {
	ok := Ok(EdgeSummary{ID: "1"})
	v, present := ok.Get()
	assert.True(t, present)
	assert.True(t, ok.IsOk())
	assert.Nil(t, ok.Err())
	assert.Equal(t, "1", v.ID)

	failed := Fail[EdgeSummary](&GenerationError{Kind: KindContractViolation})
	_, present = failed.Get()
	assert.False(t, present)
	assert.False(t, failed.IsOk())
	assert.Equal(t, KindContractViolation, failed.Err().Kind)
}

func TestFightAnalysisErrors(t *testing.T) {
	analysis := FightAnalysis{
		Summary:   Ok(EdgeSummary{ID: "1"}),
		Breakdown: Fail[FightBreakdown](&GenerationError{Kind: KindContractViolation, Artifact: ArtifactBreakdown}),
	}

	errs := analysis.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ArtifactBreakdown, errs[0].Artifact)
}
