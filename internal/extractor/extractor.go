package extractor

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"interview-insights-go/internal/config"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/types"
)

var (
	// ErrModelRequest covers transport, auth and non-2xx replies.
	ErrModelRequest = errors.New("model request failed")
	// ErrModelOutput covers replies that do not hold a valid analysis.
	ErrModelOutput = errors.New("model returned unusable output")
)

// Analyzer submits a rendered prompt to a structured-output model.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, prompt string) (types.AnalysisResult, error)
}

// New picks the analyzer for cfg.
func New(cfg config.LLMConfig, log *logger.Logger) (Analyzer, error) {
	if cfg.Mock {
		log.Component("extractor").Info("mock LLM mode ON")
		return NewMockAnalyzer(), nil
	}
	switch cfg.Provider {
	case "gemini":
		return NewGeminiAnalyzer(cfg, log), nil
	case "gateway":
		return NewGatewayAnalyzer(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

//go:embed schema.json
var schemaJSON []byte

var analysisSchema = mustSchema(schemaJSON)

func mustSchema(b []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		panic(fmt.Sprintf("extractor: invalid analysis schema: %v", err))
	}
	return s
}

// Decode pulls the first JSON object out of raw model text, validates it
// against the analysis schema and unmarshals it.
func Decode(raw string) (types.AnalysisResult, error) {
	candidate := extractJSON(raw)
	if candidate == "" {
		return types.AnalysisResult{}, fmt.Errorf("%w: no JSON object found", ErrModelOutput)
	}

	res, err := analysisSchema.Validate(gojsonschema.NewStringLoader(candidate))
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return types.AnalysisResult{}, fmt.Errorf("%w: %s", ErrModelOutput, strings.Join(msgs, "; "))
	}

	var out types.AnalysisResult
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	return out, nil
}

// extractContentFromChoices reads openai-style choices[0].message.content
func extractContentFromChoices(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}

	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return ""
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return ""
	}
	content, _ := msg["content"].(string)
	return content
}

// extractJSON finds the first balanced JSON object in a string, so any
// markdown fence or chatter around it is dropped and the object itself is
// returned byte for byte. Braces inside strings are skipped.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
