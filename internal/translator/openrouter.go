// Package translator calls the OpenRouter chat-completions API to translate
// batches of course text. It is the only component in the service with
// outbound network access; callers are expected to treat failures as
// recoverable and fall back to the source text.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lnjng/courselog-api/pkg/config"
)

// ErrCountMismatch reports a well-formed response whose element count does
// not match the input batch. The model already answered; retrying the same
// prompt is unlikely to change its mind, so callers degrade instead.
var ErrCountMismatch = errors.New("translation count mismatch")

// Client translates an ordered batch of texts, returning translations in the
// same order and of the same length.
type Client interface {
	TranslateBatch(ctx context.Context, texts []string, courseContext string) ([]string, error)
}

// OpenRouterClient implements Client against the OpenRouter API.
type OpenRouterClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenRouterClient builds a client from translation config.
func NewOpenRouterClient(cfg config.TranslationConfig) *OpenRouterClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// TranslateBatch sends one chat completion covering every text and parses the
// returned JSON array. The response is untrusted: the element count is
// validated against the input before use.
func (c *OpenRouterClient) TranslateBatch(ctx context.Context, texts []string, courseContext string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("openrouter api key not configured")
	}

	var numbered strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, t)
	}

	prompt := fmt.Sprintf(
		"Translate these Chinese items to English for a university course (%s). "+
			"These are topic descriptions and category names. "+
			"Return ONLY a JSON array of strings, with exactly %d elements, in the same order:\n%s",
		courseContext, len(texts), numbered.String())

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build translation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call translation api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translation api returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode translation response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no content in translation response")
	}

	translations, err := parseJSONArray(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if len(translations) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(translations), len(texts))
	}
	return translations, nil
}

// parseJSONArray extracts a string array from model output, tolerating
// markdown code fences around the JSON.
func parseJSONArray(content string) ([]string, error) {
	s := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	if rest, ok := strings.CutSuffix(strings.TrimSpace(s), "```"); ok {
		s = rest
	}
	s = strings.TrimSpace(s)

	var translations []string
	if err := json.Unmarshal([]byte(s), &translations); err != nil {
		return nil, fmt.Errorf("parse translation array: %w", err)
	}
	return translations, nil
}
