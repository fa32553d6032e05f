package extractor

import (
	"context"
	"sync"

	"interview-insights-go/internal/types"
)

// MockAnalyzer returns a fixed analysis. Used when USE_MOCK_LLM=true.
type MockAnalyzer struct {
	Result types.AnalysisResult
	Err    error

	mu      sync.Mutex
	prompts []string
}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{Result: types.AnalysisResult{
		Transcript: "Hello, my name is D Nikita. I am from Siddhartha College, studying computer science.",
		Ratings: types.Ratings{
			Clarity:       7,
			Structure:     6,
			Confidence:    5,
			Relevance:     8,
			Communication: 7,
			OverallRating: 6.6,
		},
		Feedback: types.Feedback{
			Strengths:    "Clear introduction with name, college and branch.",
			Improvements: "Answer lacks a closing statement and concrete achievements.",
			Suggestions:  "Follow present, past, future and end with why you fit the role.",
		},
		CandidateResponse: "Good morning. I am D Nikita, a computer science student at Siddhartha College. " +
			"I recently built a small inventory app in Go, which taught me how to break problems down. " +
			"I am now looking for a role where I can keep learning and contribute to a strong team.",
	}}
}

func (m *MockAnalyzer) Name() string { return "mock" }

func (m *MockAnalyzer) Analyze(ctx context.Context, prompt string) (types.AnalysisResult, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return types.AnalysisResult{}, err
	}
	if m.Err != nil {
		return types.AnalysisResult{}, m.Err
	}
	return m.Result, nil
}

// Prompts returns every prompt seen so far.
func (m *MockAnalyzer) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
