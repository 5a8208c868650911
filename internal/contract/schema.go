package contract

import (
	"sort"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Contract is the declared output shape sent to a generative backend.
type Contract struct {
	Name        string
	Description string
	Schema      jsonschema.Definition
}

func str(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description}
}

func object(properties map[string]jsonschema.Definition) jsonschema.Definition {
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	sort.Strings(required)
	return jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           properties,
		Required:             required,
		AdditionalProperties: false,
	}
}

// single wraps a record schema in a collection that must hold exactly one item.
func single(collection, description string, item jsonschema.Definition) jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		collection: {
			Type:        jsonschema.Array,
			Description: description,
			Items:       &item,
		},
	})
}

func Summary() Contract {
	item := object(map[string]jsonschema.Definition{
		"fightLabel":     str("The matchup exactly as given, e.g. 'Jon Jones vs Stipe Miocic'"),
		"score":          {Type: jsonschema.Integer, Description: "Edge score, a non-negative integer"},
		"rank":           str("Tier label such as '#1 Highest EV' or 'A+'"),
		"recommendedBet": str("The single best bet, or 'No Bet'"),
		"expectedValue":  str("Signed percentage, e.g. '+12.5%'"),
		"trueVsMarket":   str("Fair probability vs market-implied probability, e.g. '62% vs 55%'"),
		"confidence":     str("Confidence in the edge, e.g. 'High' or '72%'"),
		"risk":           str("Main risk to the bet"),
		"tier":           str("Bet quality bucket"),
	})
	return Contract{
		Name:        "edge_summary",
		Description: "Edge summary for exactly one fight",
		Schema:      single("summaries", "Exactly one edge summary", item),
	}
}

func Breakdown() Contract {
	line := object(map[string]jsonschema.Definition{
		"fighter": str("Fighter the line is for"),
		"odds":    str("American odds, e.g. '-150' or '+130'"),
		"prob":    str("Win probability, e.g. '60%'"),
	})
	fighter := object(map[string]jsonschema.Definition{
		"name":  str("Fighter name"),
		"notes": {Type: jsonschema.Array, Description: "At least one scouting note", Items: &jsonschema.Definition{Type: jsonschema.String}},
	})
	path := object(map[string]jsonschema.Definition{
		"path":        str("Method of victory, e.g. 'Jones by decision'"),
		"probability": str("Probability of this path, e.g. '35%'"),
	})

	item := object(map[string]jsonschema.Definition{
		"fightLabel":       str("The matchup exactly as given"),
		"edge":             str("Edge percentage"),
		"expectedValue":    str("Signed expected value percentage"),
		"score":            str("Edge score"),
		"trueLine":         line,
		"marketLine":       line,
		"mispricing":       str("Size and direction of the mispricing"),
		"recommendedBet":   str("The single best bet, or 'No Bet'"),
		"betExpectedValue": str("Expected value of the recommended bet"),
		"confidence":       str("Confidence in the bet"),
		"risk":             str("Main risk to the bet"),
		"stake":            str("Suggested stake as a bankroll percentage"),
		"fighter1":         fighter,
		"fighter2":         fighter,
		"pathsToVictory":   {Type: jsonschema.Array, Description: "At least one path to victory", Items: &path},
		"whyLineExists":    {Type: jsonschema.Array, Description: "At least one reason the market priced the fight this way", Items: &jsonschema.Definition{Type: jsonschema.String}},
	})
	return Contract{
		Name:        "fight_breakdown",
		Description: "Detailed breakdown for exactly one fight",
		Schema:      single("breakdowns", "Exactly one fight breakdown", item),
	}
}
