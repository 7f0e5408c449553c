package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultGeminiURL is the Gemini REST API base.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider calls Google's Gemini generateContent endpoint. A schema is
// sent as responseSchema so the model returns JSON only.
type GeminiProvider struct {
	Model   string
	APIKey  string
	BaseURL string
	client  *http.Client
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(model, apiKeyEnv string) *GeminiProvider {
	return &GeminiProvider{
		Model:   model,
		APIKey:  os.Getenv(apiKeyEnv),
		BaseURL: DefaultGeminiURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *GeminiProvider) Name() string { return "gemini" }

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.APIKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// Generate sends a prompt to Gemini and returns the text of the first candidate.
func (g *GeminiProvider) Generate(ctx context.Context, r Request) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	genConfig := map[string]any{
		"temperature": r.Temperature,
	}
	if r.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = r.MaxTokens
	}
	if r.Schema != nil {
		genConfig["responseMimeType"] = "application/json"
		genConfig["responseSchema"] = r.Schema.geminiSchema()
	}

	body := map[string]any{
		"contents":         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: r.Prompt}}}},
		"generationConfig": genConfig,
	}

	var result struct {
		Candidates []struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.BaseURL, url.PathEscape(g.Model), url.QueryEscape(g.APIKey))
	if err := postJSON(ctx, g.client, endpoint, nil, body, &result, "Gemini"); err != nil {
		return "", err
	}

	if result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("Gemini blocked the prompt: %s", result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty Gemini response (finish reason %s)", result.Candidates[0].FinishReason)
	}
	return text.String(), nil
}
