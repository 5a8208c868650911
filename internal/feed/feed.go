// Package feed loads fight cards from disk, either in the native card format
// or in the sports data provider's event shape.
package feed

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/stitts-dev/fight-edge/internal/models"
	"gopkg.in/yaml.v3"
)

// EventData is the provider's event payload. Only the fields used to build a card are kept.
type EventData struct {
	EventID int         `json:"EventId" yaml:"EventId"`
	Name    string      `json:"Name" yaml:"Name"`
	Status  string      `json:"Status" yaml:"Status"`
	Fights  []FightData `json:"Fights" yaml:"Fights"`
}

type FightData struct {
	FightID     int           `json:"FightId" yaml:"FightId"`
	Order       int           `json:"Order" yaml:"Order"`
	Status      string        `json:"Status" yaml:"Status"`
	WeightClass string        `json:"WeightClass" yaml:"WeightClass"`
	Active      *bool         `json:"Active" yaml:"Active"`
	Fighters    []FighterData `json:"Fighters" yaml:"Fighters"`
}

type FighterData struct {
	FirstName string `json:"FirstName" yaml:"FirstName"`
	LastName  string `json:"LastName" yaml:"LastName"`
	Moneyline *int   `json:"Moneyline" yaml:"Moneyline"`
}

// Skipped names a provider fight that could not become a matchup.
type Skipped struct {
	FightID int
	Label   string
	Reason  string
}

// Convert builds a card from provider data. Fights are ordered by Order; a
// fight that is inactive or not fully priced is skipped and reported.
func Convert(data EventData) (models.Event, []Skipped) {
	fights := make([]FightData, len(data.Fights))
	copy(fights, data.Fights)
	sort.SliceStable(fights, func(i, j int) bool {
		return fights[i].Order < fights[j].Order
	})

	event := models.Event{
		Name:     strings.TrimSpace(data.Name),
		Matchups: []models.Matchup{},
	}
	if data.EventID != 0 {
		event.ID = strconv.Itoa(data.EventID)
	}

	var skipped []Skipped
	for _, f := range fights {
		label := Label(f.Fighters)
		skip := func(reason string) {
			skipped = append(skipped, Skipped{FightID: f.FightID, Label: label, Reason: reason})
		}

		if f.Active != nil && !*f.Active {
			skip("fight is inactive")
			continue
		}
		if strings.EqualFold(f.Status, "Canceled") {
			skip("fight is canceled")
			continue
		}
		if len(f.Fighters) < 2 {
			skip("fewer than two fighters")
			continue
		}

		lines := make([]int, 0, len(f.Fighters))
		for _, fighter := range f.Fighters {
			if fighter.Moneyline == nil || *fighter.Moneyline == 0 {
				break
			}
			lines = append(lines, *fighter.Moneyline)
		}
		if len(lines) != len(f.Fighters) {
			skip("missing moneyline")
			continue
		}

		m := models.Matchup{
			Label:       label,
			Moneylines:  lines,
			WeightClass: f.WeightClass,
		}
		if f.FightID != 0 {
			m.ID = strconv.Itoa(f.FightID)
		}
		event.Matchups = append(event.Matchups, m)
	}
	return event, skipped
}

// Label joins fighter names as "First Last vs First Last".
func Label(fighters []FighterData) string {
	names := make([]string, 0, len(fighters))
	for _, f := range fighters {
		if name := strings.TrimSpace(f.FirstName + " " + f.LastName); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, " vs ")
}

// LoadCard reads a card file. Both the native card format and provider event
// payloads are accepted, as YAML or JSON.
func LoadCard(path string) (models.Event, []Skipped, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Event{}, nil, fmt.Errorf("failed to read card %s: %w", path, err)
	}
	return ParseCard(data)
}

// ParseCard decodes card bytes. A document with a top level "Fights" key is
// treated as provider data.
func ParseCard(data []byte) (models.Event, []Skipped, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Event{}, nil, fmt.Errorf("card is empty")
	}

	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return models.Event{}, nil, fmt.Errorf("failed to parse card: %w", err)
	}

	if _, ok := probe["Fights"]; ok {
		var provider EventData
		if err := yaml.Unmarshal(data, &provider); err != nil {
			return models.Event{}, nil, fmt.Errorf("failed to parse provider event: %w", err)
		}
		event, skipped := Convert(provider)
		return event, skipped, nil
	}

	var event models.Event
	if err := yaml.Unmarshal(data, &event); err != nil {
		return models.Event{}, nil, fmt.Errorf("failed to parse card: %w", err)
	}
	if event.Matchups == nil {
		event.Matchups = []models.Matchup{}
	}
	return event, nil, nil
}
