package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"interview-insights-go/internal/config"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/types"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAnalyzer calls generateContent with a JSON response schema.
type GeminiAnalyzer struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
	log         *logger.Logger
}

func NewGeminiAnalyzer(cfg config.LLMConfig, log *logger.Logger) *GeminiAnalyzer {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGeminiBaseURL
	}
	return &GeminiAnalyzer{
		baseURL:     strings.TrimRight(base, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: cfg.Timeout},
		log:         log.Component("extractor-gemini"),
	}
}

func (g *GeminiAnalyzer) Name() string { return "gemini:" + g.model }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// geminiResponseSchema mirrors schema.json in the OpenAPI subset Gemini accepts.
func geminiResponseSchema() map[string]any {
	str := map[string]any{"type": "STRING"}
	num := map[string]any{"type": "NUMBER"}
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"transcript": str,
			"ratings": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"clarity":        num,
					"structure":      num,
					"confidence":     num,
					"relevance":      num,
					"communication":  num,
					"overall_rating": num,
				},
				"required": []string{"clarity", "structure", "confidence", "relevance", "communication", "overall_rating"},
			},
			"feedback": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"strengths":    str,
					"improvements": str,
					"suggestions":  str,
				},
				"required": []string{"strengths", "improvements", "suggestions"},
			},
			"candidate_response": str,
		},
		"required": []string{"transcript", "ratings", "feedback", "candidate_response"},
	}
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, prompt string) (types.AnalysisResult, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      g.temperature,
			MaxOutputTokens:  g.maxTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   geminiResponseSchema(),
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: %v", ErrModelRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.WithError(err).Warn("gemini request failed")
		return types.AnalysisResult{}, fmt.Errorf("%w: %v", ErrModelRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: read body: %v", ErrModelRequest, err)
	}
	g.log.WithField("http_status", resp.StatusCode).Debug("gemini raw:\n" + string(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.AnalysisResult{}, fmt.Errorf("%w: gemini status %d: %s", ErrModelRequest, resp.StatusCode, truncate(body, 300))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: gemini envelope: %v", ErrModelOutput, err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return types.AnalysisResult{}, fmt.Errorf("%w: prompt blocked: %s", ErrModelOutput, parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return types.AnalysisResult{}, fmt.Errorf("%w: no candidates", ErrModelOutput)
	}

	c := parsed.Candidates[0]
	switch c.FinishReason {
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT":
		return types.AnalysisResult{}, fmt.Errorf("%w: finish reason %s", ErrModelOutput, c.FinishReason)
	}

	var text strings.Builder
	for _, p := range c.Content.Parts {
		text.WriteString(p.Text)
	}
	return Decode(text.String())
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
