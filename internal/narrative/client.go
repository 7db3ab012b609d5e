// Package narrative wraps the externally hosted language-model service that
// writes report prose. The engine treats it as a black box: it sends
// pre-computed statistics and receives text to be split into sections.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Generator produces free-form narrative text from a prompt plus structured
// statistics context.
type Generator interface {
	Generate(ctx context.Context, prompt string, stats StructuredContext) (string, error)
}

// StructuredContext is the statistics payload shipped alongside the prompt
// so the model grounds its prose in real numbers.
type StructuredContext struct {
	TotalObservations int                `json:"total_observations"`
	AverageScore      float64            `json:"average_score"`
	GradeCounts       map[string]int     `json:"grade_counts"`
	DimensionAverages map[string]float64 `json:"dimension_averages,omitempty"`
	TopThemes         []string           `json:"top_themes,omitempty"`
	KeyFindings       []string           `json:"key_findings,omitempty"`
}

// HTTPGenerator calls the hosted generation endpoint.
type HTTPGenerator struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewHTTPGenerator(cfg Config) *HTTPGenerator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPGenerator{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   cfg.Logger,
	}
}

type generateRequest struct {
	Prompt  string            `json:"prompt"`
	Context StructuredContext `json:"context"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string, stats StructuredContext) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt, Context: stats})
	if err != nil {
		return "", fmt.Errorf("failed to marshal narrative request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build narrative request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Warn("Narrative service returned non-OK status",
			"status", resp.StatusCode, "body", string(payload))
		return "", fmt.Errorf("narrative service returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode narrative response: %w", err)
	}
	return out.Text, nil
}

// MockGenerator returns canned prose, for tests and environments without the
// hosted service.
type MockGenerator struct {
	Text string
	Err  error

	// Calls records the prompts received, newest last.
	Calls []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, _ StructuredContext) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}
