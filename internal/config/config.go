package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Sampling parameters are fixed by the product, not user-configurable.
const (
	Temperature float32 = 0.7
	TopP        float32 = 0.95
	MaxTokens   int     = 1000
)

// Config aggregates all service configuration.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Upload UploadConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upload, err := loadUploadConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     loadAIConfig(),
		Upload: upload,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat-completion endpoint. The API key is not
// part of the config: it is supplied interactively per session and held
// only in session memory.
type AIConfig struct {
	Model   string
	BaseURL string
	Region  string
}

func loadAIConfig() AIConfig {
	return AIConfig{
		Model:   getEnvOrDefault("LLM_MODEL", "gpt-4o"),
		BaseURL: getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		Region:  strings.TrimSpace(os.Getenv("LLM_REGION")),
	}
}

// NewChatModel creates a model instance bound to the supplied key, with
// the fixed sampling parameters.
func (c AIConfig) NewChatModel(ctx context.Context, apiKey string) (model.ChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if c.Model == "" {
		return nil, fmt.Errorf("LLM_MODEL is not configured")
	}

	temperature := Temperature
	topP := TopP
	maxTokens := MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      apiKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// UploadConfig bounds document uploads.
type UploadConfig struct {
	MaxBytes int64
}

func loadUploadConfig() (UploadConfig, error) {
	maxBytes, err := parseOptionalIntEnv("UPLOAD_MAX_BYTES")
	if err != nil {
		return UploadConfig{}, err
	}

	cfg := UploadConfig{MaxBytes: 20 << 20}
	if maxBytes != nil {
		if *maxBytes <= 0 {
			return UploadConfig{}, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", *maxBytes)
		}
		cfg.MaxBytes = int64(*maxBytes)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
