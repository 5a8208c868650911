package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stitts-dev/fight-edge/internal/contract"
)

var (
	// ErrUnavailable covers transport failures, timeouts, throttling, server
	// errors and an open circuit breaker.
	ErrUnavailable = errors.New("generative backend unavailable")
	// ErrMalformedOutput means the backend answered but not with usable JSON.
	ErrMalformedOutput = errors.New("malformed backend output")
)

// CompletionRequest is one prompt sent to a generative backend. When Contract
// is set the backend is asked for JSON matching Contract.Schema; otherwise the
// answer is free text.
type CompletionRequest struct {
	SystemPrompt    string
	Prompt          string
	Contract        *contract.Contract
	MaxOutputTokens int
}

type Completion struct {
	// Content is raw JSON for contract requests and plain text otherwise.
	Content      []byte
	Model        string
	InputTokens  int
	OutputTokens int
}

// Backend is a generative model reachable over the network. Implementations
// must be safe for concurrent use.
type Backend interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	Name() string
}

// APIError is a non-2xx answer from a backend.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// Unwrap classifies every API error as unavailability so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	return ErrUnavailable
}

// Temporary reports whether the same request may succeed later.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ExtractJSON pulls the first complete JSON object out of model text, skipping
// markdown fences and any prose around it.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedOutput)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := json.RawMessage(text[start : i+1])
				if !json.Valid(candidate) {
					return nil, fmt.Errorf("%w: invalid JSON object", ErrMalformedOutput)
				}
				return candidate, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: unterminated JSON object", ErrMalformedOutput)
}
