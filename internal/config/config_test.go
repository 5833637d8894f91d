package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("APP_ENV", "")
	t.Setenv("EXPERIENCE_RANK_DB", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != DefaultEnv || cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.DuplicateThreshold != 0.95 || cfg.CandidateThreshold != 0.90 {
		t.Errorf("unexpected thresholds %v / %v", cfg.DuplicateThreshold, cfg.CandidateThreshold)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if filepath.Base(cfg.DBPath) != "experiences.db" {
		t.Errorf("unexpected db path %s", cfg.DBPath)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
db_path: /tmp/from-file.db
embed_provider: ollama
duplicate_threshold: 0.97
candidate_threshold: 0.85
request_timeout: 10s
openai_api_key: sk-file
`)
	t.Setenv("EXPERIENCE_RANK_DB", "/tmp/from-env.db")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-env.db" {
		t.Errorf("env should win, got %s", cfg.DBPath)
	}
	if cfg.EmbedProvider != "ollama" || cfg.OpenAIAPIKey != "sk-file" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.DuplicateThreshold != 0.97 || cfg.CandidateThreshold != 0.85 {
		t.Errorf("unexpected thresholds %v / %v", cfg.DuplicateThreshold, cfg.CandidateThreshold)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("unexpected timeout %v", cfg.RequestTimeout)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EXPERIENCE_RANK_EMBED_PROVIDER", "carrier-pigeon")
	t.Setenv("EXPERIENCE_RANK_DUPLICATE_THRESHOLD", "0.8")
	t.Setenv("EXPERIENCE_RANK_CANDIDATE_THRESHOLD", "0.9")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []error{ErrUnknownProvider, ErrMissingAPIKey, ErrInvalidThresholds} {
		if !errors.Is(err, want) {
			t.Errorf("expected %v in %v", want, err)
		}
	}
}

func TestLoad_BadNumber(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EXPERIENCE_RANK_DUPLICATE_THRESHOLD", "high")
	if _, err := Load(""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLogSummary_MasksKey(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-abcdefghijklmnop"}
	if got := cfg.LogSummary()["openai_api_key"]; got != "sk-a****mnop" {
		t.Errorf("unexpected mask %q", got)
	}
}
