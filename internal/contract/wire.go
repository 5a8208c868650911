package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string, number or boolean and keeps its text form.
// Backends are inconsistent about quoting numeric fields such as odds or edge.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", kindOf(data[0]))
	default:
		*s = FlexString(data)
	}
	return nil
}

func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// FlexInt accepts an integral JSON number or a numeric string like "82".
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", string(data))
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("expected integer, got %s", text)
	}
	*n = FlexInt(int(f))
	return nil
}

func kindOf(b byte) string {
	if b == '{' {
		return "object"
	}
	return "array"
}

type summaryEnvelope struct {
	Summaries []json.RawMessage `json:"summaries"`
}

type breakdownEnvelope struct {
	Breakdowns []json.RawMessage `json:"breakdowns"`
}

type summaryRecord struct {
	FightLabel     FlexString `json:"fightLabel" validate:"notplaceholder"`
	Score          *FlexInt   `json:"score" validate:"required,min=0"`
	Rank           FlexString `json:"rank" validate:"notplaceholder"`
	RecommendedBet FlexString `json:"recommendedBet" validate:"notplaceholder"`
	ExpectedValue  FlexString `json:"expectedValue" validate:"notplaceholder"`
	TrueVsMarket   FlexString `json:"trueVsMarket" validate:"notplaceholder"`
	Confidence     FlexString `json:"confidence" validate:"notplaceholder"`
	Risk           FlexString `json:"risk" validate:"notplaceholder"`
	Tier           FlexString `json:"tier" validate:"notplaceholder"`
}

type lineRecord struct {
	Fighter FlexString `json:"fighter" validate:"notplaceholder"`
	Odds    FlexString `json:"odds" validate:"american"`
	Prob    FlexString `json:"prob" validate:"notplaceholder"`
}

type fighterRecord struct {
	Name  FlexString   `json:"name" validate:"notplaceholder"`
	Notes []FlexString `json:"notes" validate:"required,min=1,dive,notplaceholder"`
}

type pathRecord struct {
	Path        FlexString `json:"path" validate:"notplaceholder"`
	Probability FlexString `json:"probability" validate:"notplaceholder"`
}

type breakdownRecord struct {
	FightLabel       FlexString     `json:"fightLabel" validate:"notplaceholder"`
	Edge             FlexString     `json:"edge" validate:"notplaceholder"`
	ExpectedValue    FlexString     `json:"expectedValue" validate:"notplaceholder"`
	Score            FlexString     `json:"score" validate:"notplaceholder"`
	TrueLine         *lineRecord    `json:"trueLine" validate:"required"`
	MarketLine       *lineRecord    `json:"marketLine" validate:"required"`
	Mispricing       FlexString     `json:"mispricing" validate:"notplaceholder"`
	RecommendedBet   FlexString     `json:"recommendedBet" validate:"notplaceholder"`
	BetExpectedValue FlexString     `json:"betExpectedValue" validate:"notplaceholder"`
	Confidence       FlexString     `json:"confidence" validate:"notplaceholder"`
	Risk             FlexString     `json:"risk" validate:"notplaceholder"`
	Stake            FlexString     `json:"stake" validate:"notplaceholder"`
	Fighter1         *fighterRecord `json:"fighter1" validate:"required"`
	Fighter2         *fighterRecord `json:"fighter2" validate:"required"`
	PathsToVictory   []pathRecord   `json:"pathsToVictory" validate:"required,min=1,dive"`
	WhyLineExists    []FlexString   `json:"whyLineExists" validate:"required,min=1,dive,notplaceholder"`
}
