package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"

	"github.com/vasifvortex/azercell-project3/usecase"
)

// DefaultKnowledgeBaseID is the knowledge base the demo was provisioned with.
const DefaultKnowledgeBaseID = "OPKB3F9Q2L"

const (
	ProviderBedrock = "bedrock"
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
)

type Config struct {
	Port string

	AWS       AWSConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
	Relay     RelayConfig
	Audio     AudioConfig
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type LLMConfig struct {
	Provider       string
	BedrockModelID string
	GeminiModel    string
	OpenAIBaseURL  string
	OpenAIAPIKey   string
	OpenAIModel    string
	MaxTokens      int
	Temperature    float64
}

type RetrievalConfig struct {
	Enabled         bool
	KnowledgeBaseID string
	TopK            int
	FailureMode     string
	CacheSize       int
	CacheTTL        time.Duration
}

type RelayConfig struct {
	StreamDefault bool
	StrictStatus  bool
	JWTSecret     string
	APIKey        string
	APISecret     string
	MaxConcurrent int
	RateLimit     float64
}

type AudioConfig struct {
	Enabled        bool
	TTSLanguage    string
	SpeechLanguage string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = gotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")),
			SecretAccessKey: strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderBedrock)),
			BedrockModelID: getEnv("BEDROCK_MODEL_ID", "us.anthropic.claude-3-7-sonnet-20250219-v1:0"),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
			OpenAIBaseURL:  strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:      parsePositiveInt(os.Getenv("LLM_MAX_TOKENS"), 300),
			Temperature:    parseFloat(os.Getenv("LLM_TEMPERATURE"), 0.7),
		},
		Retrieval: RetrievalConfig{
			Enabled:         parseBool(os.Getenv("RETRIEVAL_ENABLED"), true),
			KnowledgeBaseID: getEnv("KNOWLEDGE_BASE_ID", DefaultKnowledgeBaseID),
			TopK:            parsePositiveInt(os.Getenv("RETRIEVAL_TOP_K"), 3),
			FailureMode:     strings.ToLower(getEnv("RETRIEVAL_FAILURE_MODE", usecase.FailureModeSkip)),
			CacheSize:       parseNonNegativeInt(os.Getenv("RETRIEVAL_CACHE_SIZE"), 256),
			CacheTTL:        parseDuration(os.Getenv("RETRIEVAL_CACHE_TTL"), 5*time.Minute),
		},
		Relay: RelayConfig{
			StreamDefault: parseBool(os.Getenv("CHAT_STREAM_DEFAULT"), false),
			StrictStatus:  parseBool(os.Getenv("RELAY_STRICT_STATUS"), false),
			JWTSecret:     strings.TrimSpace(os.Getenv("RELAY_JWT_SECRET")),
			APIKey:        strings.TrimSpace(os.Getenv("RELAY_API_KEY")),
			APISecret:     strings.TrimSpace(os.Getenv("RELAY_API_SECRET")),
			MaxConcurrent: parsePositiveInt(os.Getenv("RELAY_MAX_CONCURRENT"), 10),
			RateLimit:     parseFloat(os.Getenv("RELAY_RATE_LIMIT"), 20),
		},
		Audio: AudioConfig{
			Enabled:        parseBool(os.Getenv("AUDIO_ENABLED"), false),
			TTSLanguage:    getEnv("TTS_LANGUAGE", "en-US"),
			SpeechLanguage: getEnv("SPEECH_LANGUAGE", "en-US"),
		},
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderBedrock, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}

	switch c.Retrieval.FailureMode {
	case usecase.FailureModeSkip, usecase.FailureModeMarker:
	default:
		return fmt.Errorf("unsupported RETRIEVAL_FAILURE_MODE %q", c.Retrieval.FailureMode)
	}

	if c.LLM.Provider == ProviderOpenAI && c.LLM.OpenAIAPIKey == "" {
		return fmt.Errorf("missing required environment variable: OPENAI_API_KEY")
	}

	// Zero disables the limiter. Fractional rates would leave no burst.
	if c.Relay.RateLimit != 0 && c.Relay.RateLimit < 1 {
		return fmt.Errorf("RELAY_RATE_LIMIT must be 0 or at least 1, got %v", c.Relay.RateLimit)
	}

	if c.Relay.JWTSecret != "" && (c.Relay.APIKey == "" || c.Relay.APISecret == "") {
		return fmt.Errorf("RELAY_JWT_SECRET requires RELAY_API_KEY and RELAY_API_SECRET")
	}

	return nil
}

// AuthEnabled reports whether relay routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.Relay.JWTSecret != ""
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseBool(raw string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func parsePositiveInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseNonNegativeInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func parseFloat(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return d
}
