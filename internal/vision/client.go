// File: internal/vision/client.go
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
	"github.com/xkilldash9x/stockwatch-cli/internal/config"
)

// Analyzer reads a product page screenshot and reports what it sees.
type Analyzer interface {
	Analyze(ctx context.Context, png []byte, item schemas.MonitoredItem) (schemas.AnalysisResult, error)
}

// New picks the real client when an API key is configured and the mock
// otherwise.
func New(cfg config.InferenceConfig, logger *zap.Logger) Analyzer {
	if cfg.APIKey == "" {
		logger.Warn("No inference API key configured, using mock analysis")
		return NewMock(time.Now().UnixNano(), logger)
	}
	return NewClient(cfg, logger)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg        config.InferenceConfig
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Analyzer = (*Client)(nil)

func NewClient(cfg config.InferenceConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.APITimeout},
		logger:     logger.Named("vision"),
	}
}

// Request and response shapes for the chat completions wire format.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the screenshot with the analysis prompt and parses the
// model's JSON answer. Transport failures come back wrapped as
// "AI analysis failed" so callers can fall back to HTML parsing.
func (c *Client) Analyze(ctx context.Context, png []byte, item schemas.MonitoredItem) (schemas.AnalysisResult, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: buildPrompt(item)},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
				}},
			},
		}},
		MaxTokens: c.cfg.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return schemas.AnalysisResult{}, fmt.Errorf("AI analysis failed: encoding request: %w", err)
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		return schemas.AnalysisResult{}, fmt.Errorf("AI analysis failed: %w", err)
	}

	var result schemas.AnalysisResult
	if err := decodeAnalysis(content, &result); err != nil {
		c.logger.Error("Could not parse model response",
			zap.String("response", content), zap.Error(err))
		return schemas.AnalysisResult{}, fmt.Errorf("failed to parse AI response: %w", err)
	}
	c.logger.Debug("Vision analysis complete",
		zap.Bool("available", result.Available),
		zap.Strings("sizes", result.AvailableSizes),
		zap.Float64("price", result.Price))
	return result, nil
}

// complete posts the request with retry on transient failures. Rate
// limits and server errors retry; anything else is permanent.
func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(2*time.Second),
		backoff.WithMaxElapsedTime(c.cfg.APITimeout),
	), ctx)

	return backoff.RetryWithData(func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return "", backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Warn("Inference endpoint busy, retrying",
				zap.Int("status", resp.StatusCode))
			return "", fmt.Errorf("inference endpoint returned %d", resp.StatusCode)
		default:
			return "", backoff.Permanent(fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(respBody)))
		}

		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", backoff.Permanent(fmt.Errorf("decoding completion: %w", err))
		}
		if len(parsed.Choices) == 0 {
			return "", backoff.Permanent(fmt.Errorf("completion had no choices"))
		}
		return parsed.Choices[0].Message.Content, nil
	}, policy)
}
