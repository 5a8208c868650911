package models

import (
	"fmt"
	"strings"
)

// Matchup is one fight on a card with the market moneylines for each side,
// in the same order as the sides appear in the label.
type Matchup struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Label       string `json:"label" yaml:"label" binding:"required"`
	Moneylines  []int  `json:"moneylines" yaml:"moneylines" binding:"required,min=1"`
	WeightClass string `json:"weightClass,omitempty" yaml:"weightClass,omitempty"`
}

// Event is a named card. Matchup order is the display order and is preserved
// through analysis.
type Event struct {
	ID       string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string    `json:"name" yaml:"name" binding:"required"`
	Matchups []Matchup `json:"matchups" yaml:"matchups" binding:"required,dive"`
}

// Validate reports an InputInvalid error for a matchup that cannot be sent to
// the backend.
func (m Matchup) Validate() error {
	if strings.TrimSpace(m.Label) == "" {
		return NewInputInvalid(m.Label, "matchup label is empty")
	}
	if len(m.Moneylines) == 0 {
		return NewInputInvalid(m.Label, "matchup has no moneylines")
	}
	return nil
}

// Validate checks every matchup. The first offending matchup is reported with
// its card position.
func (e Event) Validate() error {
	for i, m := range e.Matchups {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("matchup %d: %w", i+1, err)
		}
	}
	return nil
}
