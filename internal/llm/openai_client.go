package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// OpenAIClient uses chat completions with a strict json_schema response format.
type OpenAIClient struct {
	client         *openai.Client
	logger         *logrus.Logger
	model          string
	limiter        *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	usage          usageTracker
}

type OpenAIConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	RequestsPerMin   int
	Timeout          time.Duration
	FailureThreshold int
}

func NewOpenAIClient(cfg OpenAIConfig, logger *logrus.Logger) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientCfg),
		logger:         logger,
		model:          cfg.Model,
		limiter:        newLimiter(cfg.RequestsPerMin),
		circuitBreaker: newBreaker("openai-api", cfg.FailureThreshold, logger),
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	request := openai.ChatCompletionRequest{
		Model:               c.model,
		MaxCompletionTokens: req.MaxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Contract != nil {
		schema := req.Contract.Schema
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Contract.Name,
				Description: req.Contract.Description,
				Schema:      &schema,
				Strict:      true,
			},
		}
	}

	out, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return nil, classifyOpenAIError(ctx, err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, breakerError(err)
	}

	resp := out.(openai.ChatCompletionResponse)
	c.usage.add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrMalformedOutput)
	}
	choice := resp.Choices[0]

	c.logger.WithFields(logrus.Fields{
		"model":         resp.Model,
		"finish_reason": choice.FinishReason,
		"input_tokens":  resp.Usage.PromptTokens,
		"output_tokens": resp.Usage.CompletionTokens,
	}).Debug("OpenAI request completed")

	if choice.FinishReason == openai.FinishReasonLength {
		return nil, fmt.Errorf("%w: output truncated at max tokens", ErrMalformedOutput)
	}
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", ErrMalformedOutput, choice.Message.Refusal)
	}

	content := []byte(choice.Message.Content)
	if req.Contract != nil {
		raw, err := ExtractJSON(choice.Message.Content)
		if err != nil {
			return nil, err
		}
		content = raw
	} else if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty text response", ErrMalformedOutput)
	}

	return &Completion{
		Content:      content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func classifyOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		errType := apiErr.Type
		if errType == "" {
			errType = "api_error"
		}
		return &APIError{StatusCode: apiErr.HTTPStatusCode, Type: errType, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Type: "request_error", Message: reqErr.Error()}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (c *OpenAIClient) IsHealthy() bool {
	return c.circuitBreaker.State() != gobreaker.StateOpen
}

func (c *OpenAIClient) Usage() Usage {
	return c.usage.snapshot()
}
