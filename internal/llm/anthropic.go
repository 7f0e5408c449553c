package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider calls the Anthropic Messages API through the official SDK.
type AnthropicProvider struct {
	Model  string
	APIKey string
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(model, apiKeyEnv string, opts ...option.RequestOption) *AnthropicProvider {
	key := os.Getenv(apiKeyEnv)
	opts = append([]option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}, opts...)
	return &AnthropicProvider{
		Model:  model,
		APIKey: key,
		client: anthropic.NewClient(opts...),
	}
}

func (a *AnthropicProvider) Name() string { return "anthropic" }

// IsConfigured checks if the API key is set.
func (a *AnthropicProvider) IsConfigured() bool {
	return a.APIKey != ""
}

// Generate sends a prompt to Claude and returns the concatenated text blocks.
func (a *AnthropicProvider) Generate(ctx context.Context, r Request) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	maxTokens := int64(r.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(r.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(promptWithSchema(r))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty Anthropic response")
	}
	return text.String(), nil
}
