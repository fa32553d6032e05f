package transcription

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"interview-insights-go/internal/types"
)

// MockTranscript is served for every job when USE_MOCK_TRANSCRIBE=true.
const MockTranscript = "Good afternoon. Thank you for giving me this opportunity to introduce myself. " +
	"I was born and brought up in Hyderabad and I am pursuing BCom final year. " +
	"My goal is to get a job in an MNC and become financially independent. " +
	"My hobby is listening to music, mostly melody songs. That's it, thank you."

const mockScheme = "mock://transcripts/"

// MockBackend completes every job instantly and serves MockTranscript.
// It implements both JobService and Fetcher.
type MockBackend struct {
	mu      sync.Mutex
	started map[string]string
}

func NewMockBackend() *MockBackend {
	return &MockBackend{started: map[string]string{}}
}

func (m *MockBackend) StartJob(_ context.Context, jobName, mediaURI, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[jobName] = mediaURI
	return nil
}

func (m *MockBackend) Job(_ context.Context, jobName string) (types.TranscriptionJob, error) {
	return types.TranscriptionJob{
		JobName:       jobName,
		Status:        types.JobCompleted,
		TranscriptURI: mockScheme + jobName,
	}, nil
}

func (m *MockBackend) Fetch(_ context.Context, uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, mockScheme) {
		return nil, ErrTranscriptFetch
	}
	doc := map[string]interface{}{
		"jobName": strings.TrimPrefix(uri, mockScheme),
		"results": map[string]interface{}{
			"transcripts": []map[string]string{{"transcript": MockTranscript}},
		},
		"status": "COMPLETED",
	}
	return json.Marshal(doc)
}

// Started returns the media URI a job was started with.
func (m *MockBackend) Started(jobName string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uri, ok := m.started[jobName]
	return uri, ok
}
