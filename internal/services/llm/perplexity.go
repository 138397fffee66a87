package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"golang.org/x/time/rate"
)

// perplexityClient talks to the Perplexity chat completions API. There is no
// official Go SDK, so this is a plain HTTP client with request pacing.
type perplexityClient struct {
	config     *common.PerplexityConfig
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model       string              `json:"model"`
	Messages    []perplexityMessage `json:"messages"`
	Temperature float32             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func newPerplexityClient(config *common.PerplexityConfig, apiKey string, logger arbor.ILogger) *perplexityClient {
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil || interval <= 0 {
		interval = time.Second
	}

	return &perplexityClient{
		config:     config,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		logger:     logger,
	}
}

func (c *perplexityClient) generate(ctx context.Context, req *interfaces.GenerateRequest, model string) (string, error) {
	messages := []perplexityMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, perplexityMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, perplexityMessage{Role: "user", Content: req.Prompt})

	body := perplexityRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", common.NewLLMProviderError(string(ProviderPerplexity), fmt.Errorf("failed to encode request: %w", err))
	}

	retryConfig := NewDefaultRetryConfig()
	var lastErr error

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, status, err := c.doRequest(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if status != 0 && !IsRetryableStatus(status) {
			return "", common.NewLLMProviderError(string(ProviderPerplexity), err)
		}
		if attempt == retryConfig.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if status == http.StatusTooManyRequests {
			backoff = retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(err))
		}

		c.logger.Warn().
			Int("attempt", attempt+1).
			Int("status", status).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying Perplexity API call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", common.NewLLMProviderError(string(ProviderPerplexity),
		fmt.Errorf("API call failed after %d retries: %w", retryConfig.MaxRetries, lastErr))
}

// doRequest performs one chat completion call. The returned status is 0 for
// transport errors.
func (c *perplexityClient) doRequest(ctx context.Context, payload []byte) (string, int, error) {
	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var parsed perplexityResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	if parsed.Error != nil {
		return "", resp.StatusCode, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", resp.StatusCode, fmt.Errorf("empty response")
	}

	return parsed.Choices[0].Message.Content, resp.StatusCode, nil
}

func truncateBody(data []byte) string {
	const limit = 300
	s := string(data)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
