// Package speech turns the model-authored ideal answer into audio.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"interview-insights-go/internal/config"
	"interview-insights-go/internal/logger"
)

var (
	ErrEmptyText  = errors.New("speech: text is empty")
	ErrSynthesis  = errors.New("speech: synthesis failed")
	ErrBadName    = errors.New("speech: invalid file name")
	ErrNoSuchFile = errors.New("speech: file not found")
)

const speechEndpoint = "/audio/speech"

// Synthesizer writes spoken audio for text and returns the file path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// OpenAISynthesizer uses the OpenAI compatible /audio/speech endpoint.
type OpenAISynthesizer struct {
	apiKey    string
	baseURL   string
	model     string
	voice     string
	outputDir string
	client    *http.Client
	log       *logger.Logger
}

func NewOpenAISynthesizer(cfg config.TTSConfig, log *logger.Logger) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		voice:     cfg.Voice,
		outputDir: cfg.OutputDir,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       log.Component("speech"),
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	body, err := json.Marshal(speechRequest{Model: s.model, Input: text, Voice: s.voice, ResponseFormat: "mp3"})
	if err != nil {
		return "", fmt.Errorf("marshal speech request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+speechEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrSynthesis, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.outputDir, "response_"+uuid.New().String()+".mp3")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: write audio: %v", ErrSynthesis, err)
	}

	s.log.WithField("path", path).WithField("bytes", n).Info("synthesized response audio")
	return path, nil
}

// Resolve maps a bare file name from a request to a file inside dir.
func Resolve(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrBadName
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNoSuchFile
	}
	return path, nil
}
