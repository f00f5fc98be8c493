// Package chat answers queries that are not catalog lookups with an
// OpenAI-compatible chat model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is used when no model is configured.
	DefaultModel = "mistralai/mistral-7b-instruct"

	temperature = 0.3
	maxTokens   = 300
)

// SystemPrompt frames the assistant for the local business finder.
const SystemPrompt = `You are the assistant of a local business finder.
Answer briefly and helpfully. If the user seems to be looking for a business,
suggest naming the service and the area, for example "dentist in Andheri".
Never invent business names, phone numbers or addresses.`

// ErrEmptyReply is returned when the model produced no content.
var ErrEmptyReply = errors.New("assistant returned no reply")

// Assistant produces a free-form answer to text.
type Assistant interface {
	Reply(ctx context.Context, text string) (string, error)
}

// Config holds the chat model connection settings.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
}

// LLMAssistant implements Assistant over a langchaingo model.
type LLMAssistant struct {
	client llms.Model
	logger *zap.Logger
}

// NewLLMAssistant connects to the OpenAI-compatible endpoint in cfg.
func NewLLMAssistant(cfg Config, logger *zap.Logger) (*LLMAssistant, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("chat api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return NewAssistantWithModel(client, logger), nil
}

// NewAssistantWithModel wraps an existing langchaingo model.
func NewAssistantWithModel(client llms.Model, logger *zap.Logger) *LLMAssistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAssistant{client: client, logger: logger}
}

// Reply sends text with the system prompt and returns the first choice.
func (a *LLMAssistant) Reply(ctx context.Context, text string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	resp, err := a.client.GenerateContent(ctx, content,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		a.logger.Error("chat completion failed", zap.Error(err))
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	answer := strings.TrimSpace(resp.Choices[0].Content)
	if answer == "" {
		return "", ErrEmptyReply
	}
	return answer, nil
}
