package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// LLMClient generates text from a system and user prompt.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
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
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPLLMClient talks to an OpenAI-compatible chat completions
// endpoint.
type HTTPLLMClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewHTTPLLMClient(apiURL, apiKey, model string, timeout time.Duration) *HTTPLLMClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPLLMClient{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPLLMClient) Model() string {
	return c.model
}

func (c *HTTPLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("llm request rejected")
		return "", fmt.Errorf("llm request failed with status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("llm returned no content")
	}
	return parsed.Choices[0].Message.Content, nil
}

// MockLLMClient returns a canned plan. Used in development and when no
// API key is configured.
type MockLLMClient struct{}

func (MockLLMClient) Model() string {
	return "mock"
}

func (MockLLMClient) Complete(_ context.Context, _, userPrompt string) (string, error) {
	return fmt.Sprintf(
		"## Lesson Plan (generated offline)\n\n1. Warm-up review (10 min)\n2. Main topic work (25 min)\n3. Practice exercises (15 min)\n4. Recap and homework (10 min)\n\nRequest context:\n%s",
		userPrompt,
	), nil
}

// NewLLMClient selects the mock client when mock mode is on or no API
// key is configured.
func NewLLMClient(apiURL, apiKey, model string, timeoutSeconds int, mock bool) LLMClient {
	if mock || apiKey == "" {
		log.Info().Msg("using mock llm client")
		return MockLLMClient{}
	}
	return NewHTTPLLMClient(apiURL, apiKey, model, time.Duration(timeoutSeconds)*time.Second)
}
