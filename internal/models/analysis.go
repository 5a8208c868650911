package models

import (
	"time"
)

// EdgeSummary is the rankable betting signal for one matchup.
type EdgeSummary struct {
	ID             string `json:"id"`
	FightLabel     string `json:"fightLabel"`
	Score          int    `json:"score"`
	Rank           string `json:"rank"`
	RecommendedBet string `json:"recommendedBet"`
	ExpectedValue  string `json:"expectedValue"`
	TrueVsMarket   string `json:"trueVsMarket"`
	Confidence     string `json:"confidence"`
	Risk           string `json:"risk"`
	Tier           string `json:"tier"`
}

// NoBet is the recommendation a backend gives when no market has value.
const NoBet = "No Bet"

func (s EdgeSummary) IsBet() bool {
	return s.RecommendedBet != NoBet
}

type Line struct {
	Fighter string `json:"fighter"`
	Odds    string `json:"odds"`
	Prob    string `json:"prob"`
}

type FighterNotes struct {
	Name  string   `json:"name"`
	Notes []string `json:"notes"`
}

type PathToVictory struct {
	Path        string `json:"path"`
	Probability string `json:"probability"`
}

// FightBreakdown is the detailed rationale record for one matchup.
type FightBreakdown struct {
	FightLabel       string          `json:"fightLabel"`
	Edge             string          `json:"edge"`
	ExpectedValue    string          `json:"expectedValue"`
	Score            string          `json:"score"`
	TrueLine         Line            `json:"trueLine"`
	MarketLine       Line            `json:"marketLine"`
	Mispricing       string          `json:"mispricing"`
	RecommendedBet   string          `json:"recommendedBet"`
	BetExpectedValue string          `json:"betExpectedValue"`
	Confidence       string          `json:"confidence"`
	Risk             string          `json:"risk"`
	Stake            string          `json:"stake"`
	Fighter1         FighterNotes    `json:"fighter1"`
	Fighter2         FighterNotes    `json:"fighter2"`
	PathsToVictory   []PathToVictory `json:"pathsToVictory"`
	WhyLineExists    []string        `json:"whyLineExists"`
}

// FightAnalysis is the outcome of analyzing one matchup: zero, one or two
// generated artifacts.
type FightAnalysis struct {
	Index     int
	Matchup   Matchup
	Summary   Result[EdgeSummary]
	Breakdown Result[FightBreakdown]
}

func (f FightAnalysis) Errors() []*GenerationError {
	var errs []*GenerationError
	if err := f.Summary.Err(); err != nil {
		errs = append(errs, err)
	}
	if err := f.Breakdown.Err(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// AnalysisResult aggregates a card. Summaries and Breakdowns each follow card
// order but are not index-aligned with each other; correlate them by FightLabel.
type AnalysisResult struct {
	Summaries  []EdgeSummary      `json:"summaries"`
	Breakdowns []FightBreakdown   `json:"breakdowns"`
	Failures   []*GenerationError `json:"failures,omitempty"`
}

// AnalysisRun is the finished, persisted record of one card analysis.
type AnalysisRun struct {
	ID         string           `json:"id"`
	OwnerID    string           `json:"ownerId"`
	Title      string           `json:"title"`
	EventID    string           `json:"eventId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	Summaries  []EdgeSummary    `json:"summaries"`
	Breakdowns []FightBreakdown `json:"breakdowns"`
}

// RunListItem is the history view of a run.
type RunListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	EventID   string    `json:"eventId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	TopBet    string    `json:"topBet,omitempty"`
	BetCount  int       `json:"betCount"`
}

type ProgressStage string

const (
	StageStarted   ProgressStage = "started"
	StageOverview  ProgressStage = "overview"
	StageFight     ProgressStage = "fight"
	StageCompleted ProgressStage = "completed"
)

// AnalysisProgress is published while a run is in flight.
type AnalysisProgress struct {
	RunID        string        `json:"runId"`
	Stage        ProgressStage `json:"stage"`
	Completed    int           `json:"completed"`
	Total        int           `json:"total"`
	MatchupLabel string        `json:"matchup,omitempty"`
	SummaryOK    bool          `json:"summaryOk"`
	BreakdownOK  bool          `json:"breakdownOk"`
	Message      string        `json:"message,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}
