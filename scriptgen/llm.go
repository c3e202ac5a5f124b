// Package scriptgen turns selected articles into a narration script
// via an LLM, with a deterministic fallback when no provider answers.
package scriptgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"newscast/config"
	apperrors "newscast/errors"
)

// Client produces a completion for a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	maxCompletionTries = 3
)

// GroqClient speaks the OpenAI-compatible chat completions API.
type GroqClient struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	client      *http.Client
}

func NewGroqClient(cfg config.LLMConfig) *GroqClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	return &GroqClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *GroqClient) Name() string { return "groq" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GroqClient) Complete(ctx context.Context, prompt string) (string, error) {
	const op = "GroqClient.Complete"

	if c.apiKey == "" {
		return "", apperrors.InvalidInput(op, nil, "LLM API key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", apperrors.Internal(op, err, "Failed to encode request")
	}

	var result string
	err = retryCompletion(ctx, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return false, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return true, err
		}

		if isRetryableStatus(resp.StatusCode) {
			return true, fmt.Errorf("completion request returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return false, fmt.Errorf("completion request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}

		var parsed chatResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return false, err
		}
		if parsed.Error != nil {
			return false, fmt.Errorf("provider error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return false, fmt.Errorf("empty completion response")
		}

		result = stripFences(parsed.Choices[0].Message.Content)
		return false, nil
	})
	if err != nil {
		return "", apperrors.Internal(op, err, "LLM completion failed")
	}

	return result, nil
}

// OllamaClient talks to a local ollama server's generate endpoint.
type OllamaClient struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaClient(cfg config.LLMConfig) *OllamaClient {
	return &OllamaClient{
		host:   strings.TrimRight(cfg.OllamaHost, "/"),
		model:  cfg.OllamaModel,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	const op = "OllamaClient.Complete"

	body, err := json.Marshal(ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: false,
	})
	if err != nil {
		return "", apperrors.Internal(op, err, "Failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Internal(op, err, "Failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.Internal(op, err, "Ollama request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Internal(op, fmt.Errorf("ollama returned %d", resp.StatusCode), "Ollama request failed")
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.Internal(op, err, "Failed to decode ollama response")
	}
	if parsed.Error != "" {
		return "", apperrors.Internal(op, fmt.Errorf("ollama: %s", parsed.Error), "Ollama request failed")
	}

	return stripFences(parsed.Response), nil
}

// FallbackClient tries the primary provider and falls back to the
// secondary when the primary fails.
type FallbackClient struct {
	primary   Client
	secondary Client
	logger    *logrus.Logger
}

func NewFallbackClient(primary, secondary Client, logger *logrus.Logger) *FallbackClient {
	return &FallbackClient{primary: primary, secondary: secondary, logger: logger}
}

func (c *FallbackClient) Name() string { return c.primary.Name() + "+" + c.secondary.Name() }

func (c *FallbackClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.primary.Complete(ctx, prompt)
	if err == nil {
		return result, nil
	}

	c.logger.WithFields(logrus.Fields{
		"provider": c.primary.Name(),
		"fallback": c.secondary.Name(),
		"error":    err,
	}).Warn("Primary LLM provider failed, trying fallback")

	return c.secondary.Complete(ctx, prompt)
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isRetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// retryCompletion runs fn with exponential backoff while it reports
// the failure as retryable.
func retryCompletion(ctx context.Context, fn func() (retryable bool, err error)) error {
	var lastErr error
	wait := 500 * time.Millisecond

	for attempt := 0; attempt < maxCompletionTries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		retryable, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}

		if attempt < maxCompletionTries-1 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait *= 2
		}
	}

	return lastErr
}
