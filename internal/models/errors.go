package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInputInvalid matches any GenerationError of kind KindInputInvalid via errors.Is.
var ErrInputInvalid = errors.New("invalid input")

type ErrorKind string

const (
	KindContractViolation  ErrorKind = "contract_violation"
	KindBackendUnavailable ErrorKind = "backend_unavailable"
	KindInputInvalid       ErrorKind = "input_invalid"
	// KindCanceled marks work abandoned because the caller's context ended.
	KindCanceled ErrorKind = "canceled"
)

type Artifact string

const (
	ArtifactSummary   Artifact = "summary"
	ArtifactBreakdown Artifact = "breakdown"
	ArtifactOverview  Artifact = "overview"
)

// GenerationError describes why one artifact for one matchup could not be produced.
type GenerationError struct {
	Kind         ErrorKind
	Artifact     Artifact
	MatchupLabel string
	Cause        error
}

func NewInputInvalid(label, reason string) *GenerationError {
	return &GenerationError{
		Kind:         KindInputInvalid,
		MatchupLabel: label,
		Cause:        errors.New(reason),
	}
}

func (e *GenerationError) Error() string {
	artifact := string(e.Artifact)
	if artifact == "" {
		artifact = "matchup"
	}
	return fmt.Sprintf("%s: %s %q: %v", e.Kind, artifact, e.MatchupLabel, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrInputInvalid && e.Kind == KindInputInvalid
}

// Retriable reports whether another attempt could plausibly succeed.
func (e *GenerationError) Retriable() bool {
	return e.Kind == KindBackendUnavailable
}

func (e *GenerationError) MarshalJSON() ([]byte, error) {
	message := ""
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return json.Marshal(struct {
		Kind     ErrorKind `json:"kind"`
		Artifact Artifact  `json:"artifact,omitempty"`
		Matchup  string    `json:"matchup"`
		Message  string    `json:"message"`
	}{e.Kind, e.Artifact, e.MatchupLabel, message})
}
