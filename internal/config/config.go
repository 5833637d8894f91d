// Package config loads runtime configuration.
// It uses koanf to merge environment variables with an optional YAML file,
// after loading .env files with godotenv.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values.
type Config struct {
	Env        string `koanf:"env"`
	DBPath     string `koanf:"db_path"`
	ListenAddr string `koanf:"listen_addr"`
	LogLevel   string `koanf:"log_level"`

	// Embedding provider
	EmbedProvider string `koanf:"embed_provider"`
	EmbedModel    string `koanf:"embed_model"`
	EmbedURL      string `koanf:"embed_url"`

	// Score estimation (OpenAI-compatible chat completions)
	EstimateModel string `koanf:"estimate_model"`
	EstimateURL   string `koanf:"estimate_url"`

	OpenAIAPIKey string `koanf:"openai_api_key"`

	DuplicateThreshold float64       `koanf:"duplicate_threshold"`
	CandidateThreshold float64       `koanf:"candidate_threshold"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
}

// Default values for non-secret configuration.
const (
	DefaultEnv                = "development"
	DefaultListenAddr         = ":8080"
	DefaultLogLevel           = "info"
	DefaultEmbedProvider      = "openai"
	DefaultEstimateModel      = "gpt-3.5-turbo-0125"
	DefaultEstimateURL        = "https://api.openai.com/v1"
	DefaultDuplicateThreshold = 0.95
	DefaultCandidateThreshold = 0.90
	DefaultRequestTimeout     = 30 * time.Second
)

// Configuration validation errors.
var (
	ErrMissingAPIKey     = errors.New("OPENAI_API_KEY is required for the openai provider")
	ErrUnknownProvider   = errors.New("EXPERIENCE_RANK_EMBED_PROVIDER must be openai or ollama")
	ErrInvalidThresholds = errors.New("thresholds must satisfy -1 <= candidate <= duplicate <= 1")
	ErrInvalidLogLevel   = errors.New("EXPERIENCE_RANK_LOG_LEVEL must be debug, info, warn or error")
)

// Load reads configuration from .env files, an optional YAML file and
// environment variables, in increasing order of precedence. All
// validation errors are returned joined.
func Load(configFilePath string) (*Config, error) {
	loadDotenv()

	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
	}

	var errs []error
	dup, err := getEnvFloatOrDefault("EXPERIENCE_RANK_DUPLICATE_THRESHOLD", k, "duplicate_threshold", DefaultDuplicateThreshold)
	errs = appendErr(errs, err)
	cand, err := getEnvFloatOrDefault("EXPERIENCE_RANK_CANDIDATE_THRESHOLD", k, "candidate_threshold", DefaultCandidateThreshold)
	errs = appendErr(errs, err)
	timeout, err := getEnvDurationOrDefault("EXPERIENCE_RANK_REQUEST_TIMEOUT", k, "request_timeout", DefaultRequestTimeout)
	errs = appendErr(errs, err)

	cfg := &Config{
		Env:                getEnvOrDefault("APP_ENV", k, "env", DefaultEnv),
		DBPath:             getEnvOrDefault("EXPERIENCE_RANK_DB", k, "db_path", defaultDBPath()),
		ListenAddr:         getEnvOrDefault("EXPERIENCE_RANK_ADDR", k, "listen_addr", DefaultListenAddr),
		LogLevel:           strings.ToLower(getEnvOrDefault("EXPERIENCE_RANK_LOG_LEVEL", k, "log_level", DefaultLogLevel)),
		EmbedProvider:      strings.ToLower(getEnvOrDefault("EXPERIENCE_RANK_EMBED_PROVIDER", k, "embed_provider", DefaultEmbedProvider)),
		EmbedModel:         getEnvOrDefault("EXPERIENCE_RANK_EMBED_MODEL", k, "embed_model", ""),
		EmbedURL:           getEnvOrDefault("EXPERIENCE_RANK_EMBED_URL", k, "embed_url", ""),
		EstimateModel:      getEnvOrDefault("EXPERIENCE_RANK_ESTIMATE_MODEL", k, "estimate_model", DefaultEstimateModel),
		EstimateURL:        getEnvOrDefault("EXPERIENCE_RANK_ESTIMATE_URL", k, "estimate_url", DefaultEstimateURL),
		OpenAIAPIKey:       getEnvOrDefault("OPENAI_API_KEY", k, "openai_api_key", ""),
		DuplicateThreshold: dup,
		CandidateThreshold: cand,
		RequestTimeout:     timeout,
	}

	errs = append(errs, cfg.Validate()...)
	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() []error {
	var errs []error
	switch c.EmbedProvider {
	case "openai", "ollama":
	default:
		errs = append(errs, ErrUnknownProvider)
	}
	// Scores always come from an OpenAI-compatible endpoint, so a key is
	// required unless that endpoint is overridden (e.g. a local gateway).
	if c.OpenAIAPIKey == "" && (c.EmbedProvider == "openai" || c.EstimateURL == DefaultEstimateURL) {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.CandidateThreshold < -1 || c.DuplicateThreshold > 1 || c.CandidateThreshold > c.DuplicateThreshold {
		errs = append(errs, ErrInvalidThresholds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ErrInvalidLogLevel)
	}
	return errs
}

// LogSummary returns non-secret configuration for startup logging.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"env":                 c.Env,
		"db_path":             c.DBPath,
		"listen_addr":         c.ListenAddr,
		"embed_provider":      c.EmbedProvider,
		"estimate_model":      c.EstimateModel,
		"openai_api_key":      maskSecret(c.OpenAIAPIKey),
		"duplicate_threshold": strconv.FormatFloat(c.DuplicateThreshold, 'f', -1, 64),
		"candidate_threshold": strconv.FormatFloat(c.CandidateThreshold, 'f', -1, 64),
	}
}

// loadDotenv loads .env.<APP_ENV> and then .env. Existing variables win.
func loadDotenv() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	for _, f := range []string{".env." + env, ".env"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".experience-rank", "experiences.db")
}

// getEnvOrDefault returns the environment variable if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, k *koanf.Koanf, koanfKey, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if val := k.String(koanfKey); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloatOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return defaultVal, fmt.Errorf("%s must be a number: %w", envKey, err)
		}
		return f, nil
	}
	if k.Exists(koanfKey) {
		return k.Float64(koanfKey), nil
	}
	return defaultVal, nil
}

func getEnvDurationOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return defaultVal, fmt.Errorf("%s must be a duration: %w", envKey, err)
		}
		return d, nil
	}
	if k.Exists(koanfKey) {
		return k.Duration(koanfKey), nil
	}
	return defaultVal, nil
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
