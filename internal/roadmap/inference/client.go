// Package inference talks to an OpenAI-compatible chat completions endpoint
// and turns its answer into a roadmap document.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/metrics"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

const (
	DefaultTimeout = 60 * time.Second
	temperature    = 0.7

	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 4 << 20
)

type Options struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// Client generates roadmaps with a single attempt per call.
type Client struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Default()
	}
	return &Client{
		apiKey: opts.APIKey,
		url:    opts.URL,
		model:  opts.Model,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		metrics: opts.Metrics,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate asks the model for a roadmap. Transport failures and non-2xx
// responses wrap domain.ErrUpstreamUnavailable; undecodable envelopes or
// answers wrap domain.ErrUpstreamFormat.
func (c *Client) Generate(ctx context.Context, skillName, currentLevel string) (*domain.RoadmapDocument, error) {
	logger := logging.New(ctx)
	if c.apiKey == "" {
		logger.LogError("generate", domain.ErrInferenceNotConfigured)
		return nil, domain.ErrInferenceNotConfigured
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(skillName, currentLevel)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	body, err := c.do(req)
	c.metrics.RecordUpstreamCall(time.Since(start), err)
	if err != nil {
		logger.LogError("generate", err)
		return nil, err
	}

	var envelope chatResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %w", domain.ErrUpstreamFormat, err)
	}
	if len(envelope.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", domain.ErrUpstreamFormat)
	}

	var doc domain.RoadmapDocument
	if err := json.Unmarshal([]byte(envelope.Choices[0].Message.Content), &doc); err != nil {
		return nil, fmt.Errorf("%w: decode roadmap: %w", domain.ErrUpstreamFormat, err)
	}

	logger.LogInfof("generate", "roadmap generated skill=%q steps=%d", skillName, len(doc.Steps))
	return &doc, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: upstream returned status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, truncate(body, 512))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
