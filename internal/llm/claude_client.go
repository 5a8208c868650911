package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const anthropicVersion = "2023-06-01"

// ClaudeClient talks to the Anthropic Messages API. Structured answers are
// obtained by forcing a single tool call whose input schema is the contract.
type ClaudeClient struct {
	httpClient     *http.Client
	logger         *logrus.Logger
	apiKey         string
	baseURL        string
	model          string
	limiter        *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	usage          usageTracker
}

type ClaudeConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	RequestsPerMin   int
	Timeout          time.Duration
	FailureThreshold int
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema interface{} `json:"input_schema"`
}

type claudeToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type claudeRequest struct {
	Model      string            `json:"model"`
	MaxTokens  int               `json:"max_tokens"`
	System     string            `json:"system,omitempty"`
	Messages   []claudeMessage   `json:"messages"`
	Tools      []claudeTool      `json:"tools,omitempty"`
	ToolChoice *claudeToolChoice `json:"tool_choice,omitempty"`
}

type claudeContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type claudeResponse struct {
	ID         string               `json:"id"`
	Model      string               `json:"model"`
	Content    []claudeContentBlock `json:"content"`
	StopReason string               `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type claudeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewClaudeClient(cfg ClaudeConfig, logger *logrus.Logger) *ClaudeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	return &ClaudeClient{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         logger,
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		limiter:        newLimiter(cfg.RequestsPerMin),
		circuitBreaker: newBreaker("claude-api", cfg.FailureThreshold, logger),
	}
}

func (c *ClaudeClient) Name() string {
	return "anthropic"
}

// Complete sends exactly one request. Throttling waits on the limiter and
// respects ctx; retries are left to the caller.
func (c *ClaudeClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	request := claudeRequest{
		Model:     c.model,
		MaxTokens: req.MaxOutputTokens,
		System:    req.SystemPrompt,
		Messages:  []claudeMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.Contract != nil {
		request.Tools = []claudeTool{{
			Name:        req.Contract.Name,
			Description: req.Contract.Description,
			InputSchema: req.Contract.Schema,
		}}
		request.ToolChoice = &claudeToolChoice{Type: "tool", Name: req.Contract.Name}
	}

	out, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.makeRequest(ctx, request)
	})
	if err != nil {
		return nil, breakerError(err)
	}

	resp := out.(*claudeResponse)
	c.usage.add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	c.logger.WithFields(logrus.Fields{
		"model":         resp.Model,
		"stop_reason":   resp.StopReason,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}).Debug("Claude API request completed")

	content, err := claudeContent(resp, req.Contract != nil)
	if err != nil {
		return nil, err
	}

	return &Completion{
		Content:      content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

func (c *ClaudeClient) makeRequest(ctx context.Context, request claudeRequest) (*claudeResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var claudeResp claudeResponse
		if err := json.NewDecoder(resp.Body).Decode(&claudeResp); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
		}
		return &claudeResp, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Type: "http_error", Message: http.StatusText(resp.StatusCode)}
	var errBody claudeErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error.Message != "" {
		apiErr.Type = errBody.Error.Type
		apiErr.Message = errBody.Error.Message
	}
	return nil, apiErr
}

func claudeContent(resp *claudeResponse, structured bool) ([]byte, error) {
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("%w: output truncated at max_tokens", ErrMalformedOutput)
	}

	if structured {
		for _, block := range resp.Content {
			if block.Type == "tool_use" && len(block.Input) > 0 {
				return block.Input, nil
			}
		}
		// Some proxies drop tool use and answer in text.
		for _, block := range resp.Content {
			if block.Type == "text" {
				return ExtractJSON(block.Text)
			}
		}
		return nil, fmt.Errorf("%w: no tool_use block in response", ErrMalformedOutput)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("%w: empty text response", ErrMalformedOutput)
	}
	return []byte(text.String()), nil
}

// IsHealthy reports whether the circuit breaker is letting requests through.
func (c *ClaudeClient) IsHealthy() bool {
	return c.circuitBreaker.State() != gobreaker.StateOpen
}

func (c *ClaudeClient) Usage() Usage {
	return c.usage.snapshot()
}

// newLimiter allows perMinute requests per minute with a small burst. Zero disables throttling.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

func newBreaker(name string, threshold int, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		// Caller cancellation and bad requests say nothing about backend health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Generative backend circuit breaker state changed")
		},
	})
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// Usage is the running token count for one backend.
type Usage struct {
	Requests     int64 `json:"requests"`
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
}

type usageTracker struct {
	requests     atomic.Int64
	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

func (u *usageTracker) add(in, out int) {
	u.requests.Add(1)
	u.inputTokens.Add(int64(in))
	u.outputTokens.Add(int64(out))
}

func (u *usageTracker) snapshot() Usage {
	return Usage{
		Requests:     u.requests.Load(),
		InputTokens:  u.inputTokens.Load(),
		OutputTokens: u.outputTokens.Load(),
	}
}
