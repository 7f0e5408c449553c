package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/TobiSchelling/reliefboard/internal/config"
)

// Request is one generation call.
type Request struct {
	Prompt string
	// Schema, when set, constrains the response to JSON of that shape.
	Schema      *Schema
	Temperature float64
	MaxTokens   int
}

// Provider is the interface for LLM providers.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	IsConfigured() bool
	Name() string
}

// OllamaProvider is a local Ollama LLM provider.
type OllamaProvider struct {
	Model   string
	BaseURL string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string) *OllamaProvider {
	return &OllamaProvider{
		Model:   model,
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaProvider) Name() string { return "ollama" }

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	log.Printf("Ollama model %q not found", o.Model)
	return false
}

// Generate sends a prompt to Ollama and returns the response. A schema is
// passed as Ollama's structured output format.
func (o *OllamaProvider) Generate(ctx context.Context, r Request) (string, error) {
	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": r.Prompt},
		},
		"stream": false,
		"options": map[string]any{
			"num_predict": r.MaxTokens,
			"temperature": r.Temperature,
		},
	}
	if r.Schema != nil {
		body["format"] = r.Schema.JSONSchema()
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := postJSON(ctx, o.client, o.BaseURL+"/api/chat", nil, body, &result, "ollama"); err != nil {
		return "", err
	}

	return result.Message.Content, nil
}

// DefaultOpenAIURL is the OpenAI API base.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIProvider is an OpenAI API provider.
type OpenAIProvider struct {
	Model   string
	APIKey  string
	BaseURL string
	client  *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(model, apiKeyEnv string) *OpenAIProvider {
	return &OpenAIProvider{
		Model:   model,
		APIKey:  os.Getenv(apiKeyEnv),
		BaseURL: DefaultOpenAIURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends a prompt to OpenAI and returns the response.
func (o *OpenAIProvider) Generate(ctx context.Context, r Request) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": promptWithSchema(r)},
		},
		"max_tokens":  r.MaxTokens,
		"temperature": r.Temperature,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}
	if err := postJSON(ctx, o.client, o.BaseURL+"/chat/completions", headers, body, &result, "OpenAI"); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return result.Choices[0].Message.Content, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any, api string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s API error: %w", api, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s API returned %d: %s", api, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// CreateProvider creates an LLM provider based on configuration. The
// configured provider is tried first, then the others in a fixed order.
// It returns nil when none is usable.
func CreateProvider(cfg config.Extraction) Provider {
	candidates := map[string]func() Provider{
		"gemini":    func() Provider { return NewGeminiProvider(cfg.GeminiModel, cfg.GeminiAPIKeyEnv) },
		"openai":    func() Provider { return NewOpenAIProvider(cfg.OpenAIModel, cfg.OpenAIAPIKeyEnv) },
		"anthropic": func() Provider { return NewAnthropicProvider(cfg.AnthropicModel, cfg.AnthropicAPIKeyEnv) },
		"ollama":    func() Provider { return NewOllamaProvider(cfg.OllamaModel, cfg.OllamaURL) },
	}

	order := []string{"gemini", "openai", "anthropic", "ollama"}
	preferred := strings.ToLower(cfg.Provider)
	if _, ok := candidates[preferred]; ok {
		order = append([]string{preferred}, order...)
	} else if preferred != "" {
		log.Printf("Unknown extraction provider %q, trying the others", cfg.Provider)
	}

	tried := make(map[string]bool)
	for _, name := range order {
		if tried[name] {
			continue
		}
		tried[name] = true

		p := candidates[name]()
		if p.IsConfigured() {
			log.Printf("Using %s for extraction", p.Name())
			return p
		}
		if name == preferred {
			log.Printf("%s not available, trying fallbacks...", name)
		}
	}

	log.Printf("No LLM provider available. Set %s (or another provider's key) or start Ollama.", cfg.GeminiAPIKeyEnv)
	return nil
}
