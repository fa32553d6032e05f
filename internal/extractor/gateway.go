package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"interview-insights-go/internal/config"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/types"
)

// GatewayAnalyzer talks to an OpenAI compatible chat completions endpoint.
type GatewayAnalyzer struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
	log         *logger.Logger
}

func NewGatewayAnalyzer(cfg config.LLMConfig, log *logger.Logger) *GatewayAnalyzer {
	return &GatewayAnalyzer{
		url:         cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: cfg.Timeout},
		log:         log.Component("extractor-gateway"),
	}
}

func (g *GatewayAnalyzer) Name() string { return "gateway:" + g.model }

func (g *GatewayAnalyzer) Analyze(ctx context.Context, prompt string) (types.AnalysisResult, error) {
	reqBody := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature":     g.temperature,
		"max_tokens":      g.maxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("marshal gateway request: %w", err)
	}
	g.log.WithField("payload_len", len(data)).Debug("llm request payload")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: %v", ErrModelRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.WithError(err).Warn("llm request failed")
		return types.AnalysisResult{}, fmt.Errorf("%w: %v", ErrModelRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: read body: %v", ErrModelRequest, err)
	}
	g.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.AnalysisResult{}, fmt.Errorf("%w: gateway status %d: %s", ErrModelRequest, resp.StatusCode, truncate(body, 300))
	}

	// Prefer choices[0].message.content, fall back to the raw body.
	if inner := extractContentFromChoices(body); inner != "" {
		return Decode(inner)
	}
	return Decode(string(body))
}
