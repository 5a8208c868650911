package oddsmath

import (
	"fmt"
	"strconv"
	"strings"
)

type Format string

const (
	FormatAmerican    Format = "american"
	FormatDecimal     Format = "decimal"
	FormatProbability Format = "probability"
)

// ParseFormat accepts a format name case-insensitively. Empty means american.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatAmerican, nil
	case FormatAmerican, FormatDecimal, FormatProbability:
		return f, nil
	default:
		return "", fmt.Errorf("unknown odds format %q", name)
	}
}

// Unavailable is rendered for missing or zero prices.
const Unavailable = "N/A"

// FormatOdds renders a single price ("-150") or a composite "A / B" price for
// display. Each side of a composite is formatted on its own. Text that does not
// start with a number ("pick'em", "off the board") is returned unchanged.
func FormatOdds(odds string, format Format) string {
	if strings.Contains(odds, "/") {
		parts := strings.Split(odds, "/")
		for i, part := range parts {
			parts[i] = FormatOdds(strings.TrimSpace(part), format)
		}
		return strings.Join(parts, " / ")
	}

	if strings.TrimSpace(odds) == "" {
		return Unavailable
	}

	n, ok := parseLeadingInt(odds)
	if !ok {
		return odds
	}
	return FormatMoneyline(n, format)
}

// FormatMoneyline renders one American price in the requested format.
func FormatMoneyline(american int, format Format) string {
	if american == 0 {
		return Unavailable
	}

	switch format {
	case FormatDecimal:
		dec, err := DecimalOdds(american)
		if err != nil {
			return Unavailable
		}
		return dec.StringFixed(2)
	case FormatProbability:
		p, err := ImpliedProbability(float64(american))
		if err != nil {
			return Unavailable
		}
		return fmt.Sprintf("%.1f%%", p*100)
	default:
		if american > 0 {
			return "+" + strconv.Itoa(american)
		}
		return strconv.Itoa(american)
	}
}

// parseLeadingInt reads an optional sign and the digits that follow it, ignoring
// leading whitespace and anything after the digits. "+130 (FD)" → 130.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
