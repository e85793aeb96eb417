package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrAIUnavailable   = errors.New("AI provider is not configured")
	ErrAIEmptyResponse = errors.New("no response from AI provider")
)

const (
	chatMaxTokens   = 500
	chatTemperature = 0.7
	defaultAITries  = 3
)

// ChatResult is one assistant reply with the tokens it consumed.
type ChatResult struct {
	Content     string
	TotalTokens int64
}

// AIService talks to the OpenAI API. Rate limited calls are retried with
// exponential backoff; every other failure is returned immediately.
type AIService struct {
	client         *openai.Client
	model          string
	maxTries       uint
	initialBackoff time.Duration
}

type AIOption func(*aiOptions)

type aiOptions struct {
	baseURL        string
	httpClient     *http.Client
	maxTries       uint
	initialBackoff time.Duration
}

// WithAIBaseURL points the client at another OpenAI compatible endpoint.
func WithAIBaseURL(url string) AIOption {
	return func(o *aiOptions) { o.baseURL = url }
}

// WithAIHTTPClient replaces the HTTP client used for provider calls.
func WithAIHTTPClient(c *http.Client) AIOption {
	return func(o *aiOptions) { o.httpClient = c }
}

// WithAIRetry sets how often and how quickly rate limited calls are retried.
func WithAIRetry(maxTries uint, initial time.Duration) AIOption {
	return func(o *aiOptions) {
		o.maxTries = maxTries
		o.initialBackoff = initial
	}
}

// NewAIService creates an AIService. An empty key yields a service whose
// calls fail with ErrAIUnavailable.
func NewAIService(apiKey, model string, opts ...AIOption) *AIService {
	o := aiOptions{maxTries: defaultAITries, initialBackoff: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	if model == "" {
		model = openai.GPT4
	}

	s := &AIService{model: model, maxTries: o.maxTries, initialBackoff: o.initialBackoff}
	if apiKey == "" {
		return s
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	s.client = openai.NewClientWithConfig(cfg)
	return s
}

// Enabled reports whether an API key was configured.
func (s *AIService) Enabled() bool {
	return s.client != nil
}

// Chat sends a system prompt and a user message and returns the first choice.
func (s *AIService) Chat(ctx context.Context, systemPrompt, message string) (*ChatResult, error) {
	if s.client == nil {
		return nil, ErrAIUnavailable
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}

	resp, err := retryRateLimited(ctx, s, "chat", func() (openai.ChatCompletionResponse, error) {
		return s.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrAIEmptyResponse
	}

	return &ChatResult{
		Content:     resp.Choices[0].Message.Content,
		TotalTokens: int64(resp.Usage.TotalTokens),
	}, nil
}

// GenerateImage renders a 1024x1024 image and returns the decoded PNG bytes.
func (s *AIService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if s.client == nil {
		return nil, ErrAIUnavailable
	}

	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}

	resp, err := retryRateLimited(ctx, s, "image", func() (openai.ImageResponse, error) {
		return s.client.CreateImage(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrAIEmptyResponse
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func retryRateLimited[T any](ctx context.Context, s *AIService, op string, call func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		res, err := call()
		if err == nil {
			return res, nil
		}
		if !isRateLimited(err) {
			return res, backoff.Permanent(err)
		}
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Msg("AI provider rate limited")
		return res, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.maxTries))
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
