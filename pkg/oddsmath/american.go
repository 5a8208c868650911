package oddsmath

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrZeroOdds = errors.New("invalid American odds: cannot be 0")

var hundred = decimal.NewFromInt(100)

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american float64) (float64, error) {
	if err := checkAmerican(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return american/100.0 + 1.0, nil
	}
	return 100.0/math.Abs(american) + 1.0, nil
}

// DecimalOdds is AmericanToDecimal in fixed-point, for display and stake math.
func DecimalOdds(american int) (decimal.Decimal, error) {
	if american == 0 {
		return decimal.Zero, ErrZeroOdds
	}

	if american > 0 {
		return decimal.NewFromInt(int64(american)).Div(hundred).Add(decimal.NewFromInt(1)), nil
	}
	return hundred.Div(decimal.NewFromInt(int64(-american))).Add(decimal.NewFromInt(1)), nil
}

// ImpliedProbability converts American odds to the market-implied win probability.
// +100 → 0.50, -150 → 0.60, +150 → 0.40
func ImpliedProbability(american float64) (float64, error) {
	if err := checkAmerican(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return 100.0 / (american + 100.0), nil
	}
	abs := math.Abs(american)
	return abs / (abs + 100.0), nil
}

func checkAmerican(american float64) error {
	if american == 0 {
		return ErrZeroOdds
	}
	if math.IsNaN(american) || math.IsInf(american, 0) {
		return fmt.Errorf("invalid American odds: %v", american)
	}
	return nil
}
