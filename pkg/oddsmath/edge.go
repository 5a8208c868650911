package oddsmath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NoVigProbabilities removes the bookmaker margin from one market using the
// multiplicative method: each implied probability is divided by their sum.
// Side A: -110 | Side B: -110 → 0.50 / 0.50
func NoVigProbabilities(moneylines []int) ([]float64, error) {
	if len(moneylines) < 2 {
		return nil, fmt.Errorf("need at least 2 moneylines, got %d", len(moneylines))
	}

	implied := make([]float64, len(moneylines))
	total := 0.0
	for i, line := range moneylines {
		p, err := ImpliedProbability(float64(line))
		if err != nil {
			return nil, fmt.Errorf("moneyline %d: %w", i, err)
		}
		implied[i] = p
		total += p
	}

	fair := make([]float64, len(implied))
	for i, p := range implied {
		fair[i] = p / total
	}
	return fair, nil
}

// ExpectedValue is the expected return per unit staked at the given price when
// the true win probability is prob. 0.55 at +100 → 0.10
func ExpectedValue(prob float64, american int) (float64, error) {
	if prob < 0 || prob > 1 {
		return 0, fmt.Errorf("invalid probability %v: must be between 0 and 1", prob)
	}
	dec, err := AmericanToDecimal(float64(american))
	if err != nil {
		return 0, err
	}
	return prob*(dec-1) - (1 - prob), nil
}

// FormatSignedPercent renders a fraction as a signed percentage: 0.125 → "+12.5%".
func FormatSignedPercent(fraction float64) string {
	pct := decimal.NewFromFloat(fraction).Mul(hundred).Round(1)
	if pct.IsPositive() {
		return "+" + pct.StringFixed(1) + "%"
	}
	return pct.StringFixed(1) + "%"
}

var leadingNumber = regexp.MustCompile(`^-?\d+(\.\d+)?`)

// ParseSignedPercent reads the leading number of strings like "+28%", "-3.5% EV"
// or "12". The sign and percent markers are optional.
func ParseSignedPercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)

	match := leadingNumber.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
