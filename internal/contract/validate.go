package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stitts-dev/fight-edge/internal/models"
)

// ErrContractViolation matches every *ViolationError via errors.Is.
var ErrContractViolation = errors.New("output contract violation")

// Violation names one field that failed the contract.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ViolationError struct {
	Contract   string
	Violations []Violation
}

func (e *ViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return fmt.Sprintf("%s contract violated: %s", e.Contract, strings.Join(parts, "; "))
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrContractViolation
}

func violation(contract, field, reason string) *ViolationError {
	return &ViolationError{
		Contract:   contract,
		Violations: []Violation{{Field: field, Reason: reason}},
	}
}

// Values backends emit when they have nothing real to say. Compared case-insensitively.
var placeholders = map[string]struct{}{
	"unknown":      {},
	"unknown path": {},
	"n/a":          {},
	"na":           {},
	"tbd":          {},
	"tba":          {},
	"null":         {},
	"nil":          {},
	"undefined":    {},
	"placeholder":  {},
	"string":       {},
	"-":            {},
	"--":           {},
	"...":          {},
	"?":            {},
}

// IsPlaceholder reports whether s is blank or a known filler value.
func IsPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	_, ok := placeholders[s]
	return ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notplaceholder", func(fl validator.FieldLevel) bool {
		return !IsPlaceholder(fl.Field().String())
	})

	// American prices are at least 100 in magnitude: -150, +130, 100.
	_ = v.RegisterValidation("american", func(fl validator.FieldLevel) bool {
		s := strings.TrimPrefix(strings.TrimSpace(fl.Field().String()), "+")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		return math.Abs(f) >= 100
	})

	return v
}

// decodeSingle unwraps the one-element collection a backend was asked to return.
func decodeSingle(contract, collection string, raw []json.RawMessage, present bool) (json.RawMessage, error) {
	if !present {
		return nil, violation(contract, collection, "collection missing")
	}
	if len(raw) != 1 {
		return nil, violation(contract, collection, fmt.Sprintf("expected exactly 1 record, got %d", len(raw)))
	}
	return raw[0], nil
}

func checkRecord(contract string, record interface{}) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate %s record: %w", contract, err)
	}

	out := &ViolationError{Contract: contract}
	for _, fe := range fieldErrs {
		out.Violations = append(out.Violations, Violation{
			Field:  fieldPath(fe.Namespace()),
			Reason: reasonFor(fe),
		})
	}
	return out
}

// fieldPath drops the Go struct name validator puts in front of the namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing"
	case "notplaceholder":
		return "empty or placeholder value"
	case "american":
		return fmt.Sprintf("not American odds: %v", fe.Value())
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// DecodeSummary validates a backend answer against the edge summary contract.
// The returned summary has no ID; the caller assigns one.
func DecodeSummary(data []byte) (models.EdgeSummary, error) {
	const name = "edge_summary"

	var envelope summaryEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return models.EdgeSummary{}, violation(name, "$", "malformed JSON: "+err.Error())
	}
	raw, err := decodeSingle(name, "summaries", envelope.Summaries, envelope.Summaries != nil)
	if err != nil {
		return models.EdgeSummary{}, err
	}

	var rec summaryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.EdgeSummary{}, violation(name, "summaries[0]", "malformed record: "+err.Error())
	}
	if err := checkRecord(name, rec); err != nil {
		return models.EdgeSummary{}, err
	}

	return models.EdgeSummary{
		FightLabel:     rec.FightLabel.String(),
		Score:          int(*rec.Score),
		Rank:           rec.Rank.String(),
		RecommendedBet: rec.RecommendedBet.String(),
		ExpectedValue:  rec.ExpectedValue.String(),
		TrueVsMarket:   rec.TrueVsMarket.String(),
		Confidence:     rec.Confidence.String(),
		Risk:           rec.Risk.String(),
		Tier:           rec.Tier.String(),
	}, nil
}

// DecodeBreakdown validates a backend answer against the fight breakdown contract.
func DecodeBreakdown(data []byte) (models.FightBreakdown, error) {
	const name = "fight_breakdown"

	var envelope breakdownEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return models.FightBreakdown{}, violation(name, "$", "malformed JSON: "+err.Error())
	}
	raw, err := decodeSingle(name, "breakdowns", envelope.Breakdowns, envelope.Breakdowns != nil)
	if err != nil {
		return models.FightBreakdown{}, err
	}

	var rec breakdownRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.FightBreakdown{}, violation(name, "breakdowns[0]", "malformed record: "+err.Error())
	}
	if err := checkRecord(name, rec); err != nil {
		return models.FightBreakdown{}, err
	}

	paths := make([]models.PathToVictory, len(rec.PathsToVictory))
	for i, p := range rec.PathsToVictory {
		paths[i] = models.PathToVictory{Path: p.Path.String(), Probability: p.Probability.String()}
	}

	return models.FightBreakdown{
		FightLabel:       rec.FightLabel.String(),
		Edge:             rec.Edge.String(),
		ExpectedValue:    rec.ExpectedValue.String(),
		Score:            rec.Score.String(),
		TrueLine:         rec.TrueLine.toModel(),
		MarketLine:       rec.MarketLine.toModel(),
		Mispricing:       rec.Mispricing.String(),
		RecommendedBet:   rec.RecommendedBet.String(),
		BetExpectedValue: rec.BetExpectedValue.String(),
		Confidence:       rec.Confidence.String(),
		Risk:             rec.Risk.String(),
		Stake:            rec.Stake.String(),
		Fighter1:         rec.Fighter1.toModel(),
		Fighter2:         rec.Fighter2.toModel(),
		PathsToVictory:   paths,
		WhyLineExists:    strs(rec.WhyLineExists),
	}, nil
}

func (l *lineRecord) toModel() models.Line {
	return models.Line{Fighter: l.Fighter.String(), Odds: l.Odds.String(), Prob: l.Prob.String()}
}

func (f *fighterRecord) toModel() models.FighterNotes {
	return models.FighterNotes{Name: f.Name.String(), Notes: strs(f.Notes)}
}

func strs(in []FlexString) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}
