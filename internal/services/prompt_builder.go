package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stitts-dev/fight-edge/pkg/oddsmath"
)

// PromptTemplate is the instruction pair for one artifact.
type PromptTemplate struct {
	Artifact     models.Artifact
	SystemPrompt string
	BasePrompt   string
}

// PromptContext is what a template is filled from.
type PromptContext struct {
	EventName string
	Matchup   models.Matchup
	Overview  string
}

type PromptBuilder struct {
	templates map[models.Artifact]*PromptTemplate
	logger    *logrus.Logger
}

func NewPromptBuilder(logger *logrus.Logger) *PromptBuilder {
	pb := &PromptBuilder{
		templates: make(map[models.Artifact]*PromptTemplate),
		logger:    logger,
	}
	pb.initializeDefaultTemplates()
	return pb
}

func (pb *PromptBuilder) initializeDefaultTemplates() {
	const analyst = "You are a quantitative MMA betting analyst. You compare your own fair win " +
		"probabilities with market prices and only recommend bets with positive expected value. " +
		"Never invent placeholder values such as 'Unknown' or 'N/A'; every field must carry real analysis."

	pb.templates[models.ArtifactSummary] = &PromptTemplate{
		Artifact:     models.ArtifactSummary,
		SystemPrompt: analyst,
		BasePrompt: `Event: {{EVENT}}
Analyze exactly one fight: {{MATCHUP}}

Market:
{{MARKET}}
{{OVERVIEW}}
Return a "summaries" array containing exactly one edge summary for this fight.
Use "{{MATCHUP}}" as fightLabel. expectedValue must be a signed percentage such as "+8.4%".
If no market has value set recommendedBet to "No Bet".`,
	}

	pb.templates[models.ArtifactBreakdown] = &PromptTemplate{
		Artifact:     models.ArtifactBreakdown,
		SystemPrompt: analyst,
		BasePrompt: `Event: {{EVENT}}
Break down exactly one fight: {{MATCHUP}}

Market:
{{MARKET}}
{{OVERVIEW}}
Return a "breakdowns" array containing exactly one breakdown for this fight.
Use "{{MATCHUP}}" as fightLabel. Odds must be American odds. Give at least one path to
victory, at least one note per fighter and at least one reason the line exists.`,
	}

	pb.templates[models.ArtifactOverview] = &PromptTemplate{
		Artifact:     models.ArtifactOverview,
		SystemPrompt: analyst,
		BasePrompt: `Event: {{EVENT}}

Fights:
{{CARD}}

Write a short overview of this card for a betting analyst: where the market looks soft,
which styles clash, and any card-wide factors. Plain text, no more than 200 words.`,
	}
}

// BuildFightPrompt returns the user and system prompts for one artifact of one matchup.
func (pb *PromptBuilder) BuildFightPrompt(artifact models.Artifact, pctx PromptContext) (string, string, error) {
	template, ok := pb.templates[artifact]
	if !ok {
		return "", "", fmt.Errorf("no prompt template for artifact %q", artifact)
	}

	overview := ""
	if strings.TrimSpace(pctx.Overview) != "" {
		overview = "\nCard context:\n" + strings.TrimSpace(pctx.Overview) + "\n"
	}

	prompt := strings.NewReplacer(
		"{{EVENT}}", pctx.EventName,
		"{{MATCHUP}}", pctx.Matchup.Label,
		"{{MARKET}}", MarketLines(pctx.Matchup),
		"{{OVERVIEW}}", overview,
	).Replace(template.BasePrompt)

	pb.logger.WithFields(logrus.Fields{
		"artifact":      artifact,
		"matchup":       pctx.Matchup.Label,
		"prompt_length": len(prompt),
	}).Debug("Built fight prompt")

	return prompt, template.SystemPrompt, nil
}

// BuildOverviewPrompt returns the prompts for the card-wide overview.
func (pb *PromptBuilder) BuildOverviewPrompt(event models.Event) (string, string) {
	template := pb.templates[models.ArtifactOverview]

	var card strings.Builder
	for i, m := range event.Matchups {
		fmt.Fprintf(&card, "%d. %s (%s)\n", i+1, m.Label, formatLines(m.Moneylines))
	}

	prompt := strings.NewReplacer(
		"{{EVENT}}", event.Name,
		"{{CARD}}", strings.TrimRight(card.String(), "\n"),
	).Replace(template.BasePrompt)
	return prompt, template.SystemPrompt
}

var sideSeparator = regexp.MustCompile(`(?i)\s+vs\.?\s+`)

// Sides splits "A vs B" into its fighters. Labels without a separator yield one side.
func Sides(label string) []string {
	parts := sideSeparator.Split(strings.TrimSpace(label), -1)
	sides := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sides = append(sides, p)
		}
	}
	return sides
}

// MarketLines describes each moneyline with its implied and no-vig probability
// and the expected value of backing it if the no-vig line were the truth.
func MarketLines(m models.Matchup) string {
	sides := Sides(m.Label)
	fair, fairErr := oddsmath.NoVigProbabilities(m.Moneylines)

	var b strings.Builder
	for i, line := range m.Moneylines {
		name := fmt.Sprintf("Side %d", i+1)
		if len(sides) == len(m.Moneylines) {
			name = sides[i]
		}

		fmt.Fprintf(&b, "- %s: %s", name, oddsmath.FormatMoneyline(line, oddsmath.FormatAmerican))
		if p, err := oddsmath.ImpliedProbability(float64(line)); err == nil {
			fmt.Fprintf(&b, " (implied %.1f%%", p*100)
			if fairErr == nil {
				fmt.Fprintf(&b, ", no-vig %.1f%%", fair[i]*100)
				if ev, err := oddsmath.ExpectedValue(fair[i], line); err == nil {
					fmt.Fprintf(&b, ", EV at no-vig %s", oddsmath.FormatSignedPercent(ev))
				}
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = oddsmath.FormatMoneyline(l, oddsmath.FormatAmerican)
	}
	return strings.Join(parts, " / ")
}
