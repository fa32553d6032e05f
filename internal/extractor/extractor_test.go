package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-insights-go/internal/config"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/types"
)

const validAnalysis = `{
  "transcript": "hi I am ravi",
  "ratings": {"clarity": 7, "structure": "6", "confidence": "5/10", "relevance": 8, "communication": 7, "overall_rating": 6.6},
  "feedback": {"strengths": "clear {name}", "improvements": "add goals", "suggestions": "use PPF"},
  "candidate_response": "Good morning..."
}`

func testLogger() *logger.Logger {
	return logger.NewWithOutput(io.Discard)
}

func TestDecode(t *testing.T) {
	got, err := Decode("Here you go:\n```json\n" + validAnalysis + "\n```\nthanks")
	require.NoError(t, err)
	assert.Equal(t, "hi I am ravi", got.Transcript)
	assert.Equal(t, types.Score(6), got.Ratings.Structure)
	assert.Equal(t, types.Score(5), got.Ratings.Confidence)
	assert.Equal(t, types.Score(6.6), got.Ratings.OverallRating)
	assert.Equal(t, "clear {name}", got.Feedback.Strengths)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no object", "I cannot help with that"},
		{"unbalanced", `{"ratings": {"clarity": 1}`},
		{"missing feedback", `{"ratings": {"clarity":1,"structure":1,"confidence":1,"relevance":1,"communication":1,"overall_rating":1}, "candidate_response": "x"}`},
		{"missing rating", `{"ratings": {"clarity":1}, "feedback": {"strengths":"","improvements":"","suggestions":""}, "candidate_response": "x"}`},
		{"wrong type", `{"ratings": {"clarity":true,"structure":1,"confidence":1,"relevance":1,"communication":1,"overall_rating":1}, "feedback": {"strengths":"","improvements":"","suggestions":""}, "candidate_response": "x"}`},
		{"unparseable score", `{"ratings": {"clarity":"high","structure":1,"confidence":1,"relevance":1,"communication":1,"overall_rating":1}, "feedback": {"strengths":"","improvements":"","suggestions":""}, "candidate_response": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			assert.ErrorIs(t, err, ErrModelOutput)
		})
	}
}

func TestExtractJSONSkipsBracesInStrings(t *testing.T) {
	assert.Equal(t, `{"a": "}{", "b": {"c": 1}}`, extractJSON(`noise {"a": "}{", "b": {"c": 1}} tail`))
	assert.Equal(t, `{"a": "say \"}\""}`, extractJSON(`{"a": "say \"}\""}`))
	assert.Empty(t, extractJSON("none"))
	assert.Empty(t, extractJSON(""))
}

func TestDecodeKeepsFencesInsideStrings(t *testing.T) {
	raw := "```json\n" + `{
  "transcript": "t",
  "ratings": {"clarity": 7, "structure": 6, "confidence": 5, "relevance": 8, "communication": 7, "overall_rating": 6.6},
  "feedback": {"strengths": "use ` + "```" + ` fences ` + "`x`" + `", "improvements": "", "suggestions": ""},
  "candidate_response": "c"
}` + "\n```"
	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "use ``` fences `x`", got.Feedback.Strengths)
}

func TestGeminiAnalyzer(t *testing.T) {
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": validAnalysis}}},
				"finishReason": "STOP",
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGeminiAnalyzer(config.LLMConfig{
		APIKey: "k", Model: "gemini-test", BaseURL: srv.URL, Temperature: 0.2, MaxTokens: 100, Timeout: 5 * time.Second,
	}, testLogger())

	got, err := g.Analyze(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, types.Score(7), got.Ratings.Clarity)
	assert.Equal(t, "gemini:gemini-test", g.Name())

	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "the prompt", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, "application/json", gotReq.GenerationConfig.ResponseMimeType)
	assert.Equal(t, "OBJECT", gotReq.GenerationConfig.ResponseSchema["type"])
}

func TestGeminiAnalyzerErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrModelRequest},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, ErrModelRequest},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, ErrModelOutput},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, ErrModelOutput},
		{"safety stop", http.StatusOK, `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`, ErrModelOutput},
		{"bad envelope", http.StatusOK, `not json`, ErrModelOutput},
		{"bad content", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`, ErrModelOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGeminiAnalyzer(config.LLMConfig{Model: "m", BaseURL: srv.URL, Timeout: time.Second}, testLogger())
			_, err := g.Analyze(context.Background(), "p")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGatewayAnalyzer(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": validAnalysis}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGatewayAnalyzer(config.LLMConfig{APIKey: "secret", Model: "gpt-test", BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	got, err := g.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Good morning...", got.CandidateResponse)
	assert.Equal(t, "gpt-test", gotReq["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, gotReq["response_format"])
}

func TestGatewayAnalyzerFallsBackToBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validAnalysis))
	}))
	defer srv.Close()

	g := NewGatewayAnalyzer(config.LLMConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	got, err := g.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, types.Score(8), got.Ratings.Relevance)
}

func TestGatewayAnalyzerStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGatewayAnalyzer(config.LLMConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	_, err := g.Analyze(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrModelRequest)
}

func TestNewSelectsAnalyzer(t *testing.T) {
	a, err := New(config.LLMConfig{Mock: true, Provider: "gemini"}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "mock", a.Name())

	a, err = New(config.LLMConfig{Provider: "gateway", Model: "x"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &GatewayAnalyzer{}, a)

	_, err = New(config.LLMConfig{Provider: "claude"}, testLogger())
	assert.Error(t, err)
}

func TestMockAnalyzer(t *testing.T) {
	m := NewMockAnalyzer()
	got, err := m.Analyze(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.CandidateResponse)
	assert.Equal(t, []string{"p1"}, m.Prompts())

	m.Err = errors.New("down")
	_, err = m.Analyze(context.Background(), "p2")
	assert.EqualError(t, err, "down")
}
