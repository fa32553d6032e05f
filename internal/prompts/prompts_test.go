package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-insights-go/internal/types"
)

func TestDefaultRender(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "Tell me about yourself.", s.DefaultQuestion())

	out, err := s.Render(Input{
		Transcript: "my name is nikita",
		Candidate:  types.CandidateProfile{FullName: "D Nikita", College: "Siddhartha College"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"""my name is nikita"""`)
	assert.Contains(t, out, "- Name: D Nikita")
	assert.Contains(t, out, "- Branch: not provided")
	assert.Contains(t, out, `practice the question: "Tell me about yourself."`)
	assert.Contains(t, out, `"overall_rating"`)
}

func TestRenderCustomQuestion(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	out, err := s.Render(Input{Transcript: "t", Question: "Why should we hire you?"})
	require.NoError(t, err)
	assert.Contains(t, out, "Why should we hire you?")
	assert.NotContains(t, out, "Tell me about yourself.")
}

func TestRenderRequiresTranscript(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	_, err = s.Render(Input{Transcript: "  "})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_question: "What are your strengths?"
missing_value: "-"
coach: "Q={{.Question}} N={{.Candidate.FullName}} T={{.Transcript}}"
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	out, err := s.Render(Input{Transcript: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Q=What are your strengths? N=- T=hello", out)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("coach: ''"))
	assert.Error(t, err)

	_, err = Parse([]byte("coach: '{{.Nope'"))
	assert.Error(t, err)

	_, err = Parse([]byte(":\n- not yaml: ["))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
