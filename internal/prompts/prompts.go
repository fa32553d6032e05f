// Package prompts renders the coaching instruction sent to the model.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"interview-insights-go/internal/types"
)

//go:embed default.yaml
var defaultYAML []byte

// File is the on-disk shape of a prompt set.
type File struct {
	DefaultQuestion string `yaml:"default_question"`
	MissingValue    string `yaml:"missing_value"`
	Coach           string `yaml:"coach"`
}

// ErrEmptyTranscript means the recording produced no speech to coach on.
var ErrEmptyTranscript = errors.New("transcript is empty")

type Input struct {
	Transcript string
	Candidate  types.CandidateProfile
	Question   string
}

type Set struct {
	defaultQuestion string
	missing         string
	coach           *template.Template
}

// Default returns the embedded prompt set.
func Default() (*Set, error) {
	return Parse(defaultYAML)
}

// Load reads a prompt set from path, or the embedded one when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Set, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompts yaml: %w", err)
	}
	if strings.TrimSpace(f.Coach) == "" {
		return nil, errors.New("prompts: coach template is required")
	}
	if f.DefaultQuestion == "" {
		f.DefaultQuestion = "Tell me about yourself."
	}
	if f.MissingValue == "" {
		f.MissingValue = "not provided"
	}
	tmpl, err := template.New("coach").Option("missingkey=error").Parse(f.Coach)
	if err != nil {
		return nil, fmt.Errorf("prompts: coach template: %w", err)
	}
	return &Set{defaultQuestion: f.DefaultQuestion, missing: f.MissingValue, coach: tmpl}, nil
}

func (s *Set) DefaultQuestion() string { return s.defaultQuestion }

// Render fills the coach template. Blank candidate fields become the
// configured missing value and a blank question becomes the default one.
func (s *Set) Render(in Input) (string, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return "", ErrEmptyTranscript
	}
	if strings.TrimSpace(in.Question) == "" {
		in.Question = s.defaultQuestion
	}
	in.Candidate.FullName = s.orMissing(in.Candidate.FullName)
	in.Candidate.College = s.orMissing(in.Candidate.College)
	in.Candidate.Branch = s.orMissing(in.Candidate.Branch)

	var b strings.Builder
	if err := s.coach.Execute(&b, in); err != nil {
		return "", fmt.Errorf("prompts: render: %w", err)
	}
	return b.String(), nil
}

func (s *Set) orMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return s.missing
	}
	return v
}
