package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"openlabel-backend/internal/callclient"
	"openlabel-backend/internal/llm"
	"openlabel-backend/internal/shared/telemetry"
)

const (
	DefaultAPIURL = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel  = "gpt-3.5-turbo:free"

	// CategoryLLM is the quota bucket every completion is counted against.
	CategoryLLM = "llm"

	maxTokens = 512
)

// Config holds the provider settings.
type Config struct {
	APIURL string
	APIKey string
	Model  string
	Policy callclient.Policy
}

// Client implements llm.Client against an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg   Config
	calls *callclient.Client
}

// NewClient constructs a Client. Calls go through calls so they are quota gated and retried.
func NewClient(cfg Config, calls *callclient.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	if calls == nil {
		return nil, fmt.Errorf("call client is required")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Client{cfg: cfg, calls: calls}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as the user turn and returns the first choice's content.
// A response without choices yields an empty string.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	header.Set("Content-Type", "application/json")

	resp, err := c.calls.Invoke(ctx, callclient.Request{
		Category: CategoryLLM,
		Method:   http.MethodPost,
		URL:      c.cfg.APIURL,
		Header:   header,
		Body:     payload,
	}, c.cfg.Policy)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("llm response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	logUsage(parsed)
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func logUsage(parsed chatResponse) {
	fields := map[string]any{"model": parsed.Model}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
