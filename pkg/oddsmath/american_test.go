package oddsmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name     string
		american float64
		expected float64
		wantErr  bool
	}{
		{"+150", 150, 2.50, false},
		{"-150", -150, 1.6667, false},
		{"+100 even", 100, 2.00, false},
		{"-100 even", -100, 2.00, false},
		{"+250 underdog", 250, 3.50, false},
		{"-400 heavy favourite", -400, 1.25, false},
		{"zero", 0, 0, true},
		{"NaN", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := AmericanToDecimal(tt.american)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, result, 0.0001)
		})
	}
}

func TestAmericanToDecimal_Formula(t *testing.T) {
	for a := -1000.0; a <= 1000; a += 7 {
		if a == 0 {
			continue
		}
		got, err := AmericanToDecimal(a)
		require.NoError(t, err)

		again, _ := AmericanToDecimal(a)
		assert.Equal(t, got, again, "must be deterministic for %v", a)

		if a > 0 {
			assert.Equal(t, a/100+1, got)
		} else {
			assert.Equal(t, 100/math.Abs(a)+1, got)
		}
	}
}

func TestDecimalOdds(t *testing.T) {
	dec, err := DecimalOdds(-150)
	require.NoError(t, err)
	assert.Equal(t, "1.67", dec.StringFixed(2))

	dec, err = DecimalOdds(130)
	require.NoError(t, err)
	assert.Equal(t, "2.30", dec.StringFixed(2))

	_, err = DecimalOdds(0)
	assert.ErrorIs(t, err, ErrZeroOdds)
}

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		american float64
		expected float64
	}{
		{100, 0.50},
		{-150, 0.60},
		{150, 0.40},
		{-300, 0.75},
	}

	for _, tt := range tests {
		p, err := ImpliedProbability(tt.american)
		require.NoError(t, err)
		assert.InDelta(t, tt.expected, p, 0.0001)
	}

	_, err := ImpliedProbability(0)
	assert.ErrorIs(t, err, ErrZeroOdds)
}
