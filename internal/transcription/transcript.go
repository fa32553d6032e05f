package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher downloads the transcript document a completed job points at.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptFetch, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptFetch, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTranscriptFetch, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTranscriptFetch, resp.StatusCode, string(body))
	}
	return body, nil
}

type transcriptDoc struct {
	Results *struct {
		Transcripts []struct {
			Transcript *string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// ParseTranscript extracts results.transcripts[0].transcript.
func ParseTranscript(data []byte) (string, error) {
	var doc transcriptDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedTranscript, err)
	}
	if doc.Results == nil {
		return "", fmt.Errorf("%w: missing results", ErrMalformedTranscript)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", fmt.Errorf("%w: results.transcripts is empty", ErrMalformedTranscript)
	}
	text := doc.Results.Transcripts[0].Transcript
	if text == nil {
		return "", fmt.Errorf("%w: missing results.transcripts[0].transcript", ErrMalformedTranscript)
	}
	return *text, nil
}
