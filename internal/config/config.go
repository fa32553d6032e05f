package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Server        ServerConfig
	Storage       StorageConfig
	Transcription TranscriptionConfig
	Poll          PollConfig
	LLM           LLMConfig
	TTS           TTSConfig
	Candidates    CandidatesConfig
	PromptsPath   string
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

type StorageConfig struct {
	Mock           bool
	TempDir        string
	LocalDir       string
	Bucket         string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

type TranscriptionConfig struct {
	Mock         bool
	StartJobs    bool
	LanguageCode string
}

// PollConfig bounds the transcription status loop.
type PollConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxWait     time.Duration
}

type LLMConfig struct {
	Mock        bool
	Provider    string // gemini | gateway
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type TTSConfig struct {
	Enabled   bool
	APIKey    string
	BaseURL   string
	Model     string
	Voice     string
	OutputDir string
	Timeout   time.Duration
}

type CandidatesConfig struct {
	DSN        string
	RosterPath string
}

// Load reads .env (if present) and the process environment.
func Load() *AppConfig {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() *AppConfig {
	provider := getEnv("LLM_PROVIDER", "gemini")
	return &AppConfig{
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 6*time.Minute),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
		},
		Storage: StorageConfig{
			Mock:           getEnvAsBool("USE_MOCK_STORAGE", false),
			TempDir:        getEnv("TEMP_DIR", "temp"),
			LocalDir:       getEnv("LOCAL_STORE_DIR", "store"),
			Bucket:         getEnv("S3_BUCKET_NAME", ""),
			Region:         getEnv("AWS_DEFAULT_REGION", "us-east-1"),
			Endpoint:       getEnv("S3_ENDPOINT", ""),
			AccessKey:      getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ForcePathStyle: getEnvAsBool("S3_FORCE_PATH_STYLE", false),
		},
		Transcription: TranscriptionConfig{
			Mock:         getEnvAsBool("USE_MOCK_TRANSCRIBE", false),
			StartJobs:    getEnvAsBool("TRANSCRIBE_START_JOBS", true),
			LanguageCode: getEnv("TRANSCRIBE_LANGUAGE", "en-US"),
		},
		Poll: PollConfig{
			Interval:    getEnvAsDuration("POLL_INTERVAL", 5*time.Second),
			MaxInterval: getEnvAsDuration("POLL_MAX_INTERVAL", 30*time.Second),
			Multiplier:  getEnvAsFloat("POLL_MULTIPLIER", 1.5),
			MaxWait:     getEnvAsDuration("POLL_MAX_WAIT", 5*time.Minute),
		},
		LLM: LLMConfig{
			Mock:        getEnvAsBool("USE_MOCK_LLM", false),
			Provider:    provider,
			APIKey:      llmKey(provider),
			Model:       getEnv("LLM_MODEL", defaultModel(provider)),
			BaseURL:     getEnv("LLM_GATEWAY_URL", ""),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2048),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		TTS: TTSConfig{
			Enabled:   getEnvAsBool("TTS_ENABLED", false),
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			BaseURL:   getEnv("TTS_BASE_URL", "https://api.openai.com/v1"),
			Model:     getEnv("TTS_MODEL", "tts-1"),
			Voice:     getEnv("TTS_VOICE", "alloy"),
			OutputDir: getEnv("TTS_OUTPUT_DIR", "responses"),
			Timeout:   getEnvAsDuration("TTS_TIMEOUT", 30*time.Second),
		},
		Candidates: CandidatesConfig{
			DSN:        getEnv("CANDIDATES_DSN", "candidates.db"),
			RosterPath: getEnv("ROSTER_PATH", ""),
		},
		PromptsPath: getEnv("PROMPTS_PATH", ""),
	}
}

func llmKey(provider string) string {
	if provider == "gemini" {
		return getEnv("GOOGLE_API_KEY", "")
	}
	return getEnv("LLM_API_KEY", "")
}

func defaultModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.0-flash-001"
	}
	return "gpt-4o-mini"
}

// Validate reports every missing or inconsistent setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("PORT must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if !c.Storage.Mock && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET_NAME is required unless USE_MOCK_STORAGE=true"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.Poll.MaxInterval < c.Poll.Interval {
		errs = append(errs, errors.New("POLL_MAX_INTERVAL must be >= POLL_INTERVAL"))
	}
	if c.Poll.Multiplier < 1 {
		errs = append(errs, errors.New("POLL_MULTIPLIER must be >= 1"))
	}
	if c.Poll.MaxWait <= 0 {
		errs = append(errs, errors.New("POLL_MAX_WAIT must be positive"))
	}
	if !c.LLM.Mock {
		switch c.LLM.Provider {
		case "gemini":
			if c.LLM.APIKey == "" {
				errs = append(errs, errors.New("GOOGLE_API_KEY is required for the gemini provider"))
			}
		case "gateway":
			if c.LLM.APIKey == "" || c.LLM.BaseURL == "" {
				errs = append(errs, errors.New("LLM_GATEWAY_URL and LLM_API_KEY are required for the gateway provider"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, errors.New("LLM_TEMPERATURE must be between 0 and 2"))
	}
	if c.TTS.Enabled && c.TTS.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required when TTS_ENABLED=true"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
