package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/llm"
	"github.com/stitts-dev/fight-edge/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func summaryJSON(label, ev string) string {
	return fmt.Sprintf(`{"summaries": [{
		"fightLabel": %q, "score": 70, "rank": "#2", "recommendedBet": "Side A ML",
		"expectedValue": %q, "trueVsMarket": "60%% vs 55%%", "confidence": "Medium",
		"risk": "Cardio late", "tier": "B"
	}]}`, label, ev)
}

func breakdownJSON(label string) string {
	return fmt.Sprintf(`{"breakdowns": [{
		"fightLabel": %q, "edge": "5%%", "expectedValue": "+8%%", "score": 70,
		"trueLine": {"fighter": "Side A", "odds": -160, "prob": "62%%"},
		"marketLine": {"fighter": "Side A", "odds": -130, "prob": "56%%"},
		"mispricing": "6 points", "recommendedBet": "Side A ML", "betExpectedValue": "+8%%",
		"confidence": "Medium", "risk": "Medium", "stake": "1.5%%",
		"fighter1": {"name": "Side A", "notes": ["Wrestling"]},
		"fighter2": {"name": "Side B", "notes": ["Power"]},
		"pathsToVictory": [{"path": "Side A decision", "probability": "40%%"}],
		"whyLineExists": ["Name value"]
	}]}`, label)
}

// scriptedBackend answers every request through respond and counts calls.
type scriptedBackend struct {
	calls   atomic.Int64
	mu      sync.Mutex
	prompts []string
	respond func(call int64, req llm.CompletionRequest) (*llm.Completion, error)
}

func (b *scriptedBackend) Name() string {
	return "scripted"
}

func (b *scriptedBackend) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	call := b.calls.Add(1)
	b.mu.Lock()
	b.prompts = append(b.prompts, req.Prompt)
	b.mu.Unlock()
	return b.respond(call, req)
}

func (b *scriptedBackend) promptLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}

func completion(content string) (*llm.Completion, error) {
	return &llm.Completion{Content: []byte(content)}, nil
}

// labelFrom recovers the matchup label a fight prompt was built for.
func labelFrom(req llm.CompletionRequest) string {
	const marker = "exactly one fight: "
	i := strings.Index(req.Prompt, marker)
	if i < 0 {
		return ""
	}
	rest := req.Prompt[i+len(marker):]
	if j := strings.Index(rest, "\n"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

// echoBackend returns a valid record for whatever contract and matchup it is asked about.
func echoBackend() *scriptedBackend {
	return &scriptedBackend{respond: func(_ int64, req llm.CompletionRequest) (*llm.Completion, error) {
		return validFor(req)
	}}
}

func validFor(req llm.CompletionRequest) (*llm.Completion, error) {
	label := labelFrom(req)
	if req.Contract == nil {
		return completion("Overview text")
	}
	if req.Contract.Name == "edge_summary" {
		return completion(summaryJSON(label, "+5%"))
	}
	return completion(breakdownJSON(label))
}

func card(n int) models.Event {
	event := models.Event{Name: "Fight Night"}
	for i := 1; i <= n; i++ {
		event.Matchups = append(event.Matchups, models.Matchup{
			Label:      fmt.Sprintf("Fighter %dA vs Fighter %dB", i, i),
			Moneylines: []int{-150, 130},
		})
	}
	return event
}

func newTestAnalyzer(summaryBackend, breakdownBackend llm.Backend, workers int) *CardAnalyzer {
	log := quietLogger()
	prompts := NewPromptBuilder(log)
	fights := NewFightAnalyzer(
		NewSummaryAdapter(summaryBackend, prompts, AdapterConfig{MaxOutputTokens: 1500}, log),
		NewBreakdownAdapter(breakdownBackend, prompts, AdapterConfig{MaxOutputTokens: 1200}, log),
		log,
	)
	return NewCardAnalyzer(fights, nil, workers, log)
}
