package common

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gesthor/ocr-service/constants"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Pipeline PipelineConfig
	OCR      OCRConfig
	LLM      LLMConfig
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Addr              string
	APIKey            string // bearer token required on /api routes; empty disables auth
	MaxUploadMB       int
	AllowedExtensions []string
	CORSOrigins       []string
}

// PipelineConfig holds the per-request pipeline defaults. The values are
// copied into pipeline.Options on each request; nothing reads them as
// shared mutable state.
type PipelineConfig struct {
	DemoMode            bool
	OCRLocal            bool
	CategoryPassthrough bool
}

// OCRConfig holds tesseract invocation settings.
type OCRConfig struct {
	Tesseract   string
	Lang        string
	TessdataDir string
}

// LLMConfig holds the completion-provider settings.
type LLMConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	Temperature   float32
	MaxTokens     int
	ChatMaxTokens int
	Timeout       time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              getEnv("ADDR", ":8080"),
			APIKey:            getEnv("SERVICE_API_KEY", ""),
			MaxUploadMB:       getEnvAsInt("MAX_UPLOAD_MB", 10),
			AllowedExtensions: getEnvAsList("ALLOWED_EXTENSIONS", constants.DefaultAllowedExtensions),
			CORSOrigins:       getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		Pipeline: PipelineConfig{
			DemoMode:            getEnvAsBool("DEMO_MODE", false),
			OCRLocal:            getEnvAsBool("OCR_LOCAL", true),
			CategoryPassthrough: getEnvAsBool("CATEGORY_PASSTHROUGH", false),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_CMD", "tesseract"),
			Lang:        getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			BaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:        getEnv("OPENAI_API_KEY", ""),
			Model:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature:   getEnvAsFloat32("OPENAI_TEMPERATURE", 0.7),
			MaxTokens:     getEnvAsInt("OPENAI_MAX_TOKENS", 1000),
			ChatMaxTokens: getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 500),
			Timeout:       getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
	}
}

// Validate checks the loaded configuration. Demo mode never touches the
// provider, so the API key is only required outside it.
func (c *Config) Validate() error {
	if !c.Pipeline.DemoMode && c.LLM.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required unless DEMO_MODE is set")
	}
	if c.Server.Addr == "" {
		return errors.New("ADDR is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(strings.TrimPrefix(p, ".")))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
