package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t, "PORT", "POLL_INTERVAL", "POLL_MAX_WAIT", "LLM_PROVIDER", "LLM_MODEL", "MAX_UPLOAD_MB", "TRANSCRIBE_START_JOBS")
	cfg := FromEnv()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, int64(50<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Poll.MaxWait)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash-001", cfg.LLM.Model)
	assert.True(t, cfg.Transcription.StartJobs)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("POLL_MULTIPLIER", "2")
	t.Setenv("USE_MOCK_LLM", "true")
	t.Setenv("LLM_PROVIDER", "gateway")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("LLM_MODEL", "")
	cfg := FromEnv()

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 2.0, cfg.Poll.Multiplier)
	assert.True(t, cfg.LLM.Mock)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("POLL_MAX_WAIT", "forever")
	cfg := FromEnv()
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Poll.MaxWait)
}

func validConfig() *AppConfig {
	return &AppConfig{
		Server:  ServerConfig{Port: 8000, MaxUploadBytes: 1 << 20},
		Storage: StorageConfig{Mock: true},
		Poll:    PollConfig{Interval: time.Second, MaxInterval: 5 * time.Second, Multiplier: 1.5, MaxWait: time.Minute},
		LLM:     LLMConfig{Provider: "gemini", APIKey: "k", Temperature: 0.2},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Storage.Mock = false
	cfg.Poll.MaxInterval = 0
	cfg.LLM.Provider = "bard"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET_NAME")
	assert.Contains(t, err.Error(), "POLL_MAX_INTERVAL")
	assert.Contains(t, err.Error(), `unknown LLM_PROVIDER "bard"`)
}

func TestValidateGatewayAndTTS(t *testing.T) {
	cfg := validConfig()
	cfg.LLM = LLMConfig{Provider: "gateway", APIKey: "k"}
	cfg.TTS.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_GATEWAY_URL")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.LLM.Mock = true
	cfg.TTS.APIKey = "tts"
	assert.NoError(t, cfg.Validate())
}
