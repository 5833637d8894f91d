// Package cli implements the experience-rank CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/experience-rank/internal/config"
	"github.com/rcliao/experience-rank/internal/embedding"
	"github.com/rcliao/experience-rank/internal/estimate"
	"github.com/rcliao/experience-rank/internal/ranking"
	"github.com/rcliao/experience-rank/internal/server"
	"github.com/rcliao/experience-rank/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "experience-rank",
	Short: "Score and rank how difficult life experiences are",
	Long:  "Estimates a difficulty score for a described experience, reuses scores of near-identical ones, and keeps a percentile ranking refined by pairwise feedback. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $EXPERIENCE_RANK_DB or ~/.experience-rank/experiences.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// loadConfig loads configuration. Commands that never call the model
// providers pass strict=false so a missing API key does not block them.
func loadConfig(strict bool) *config.Config {
	cfg, err := config.Load(configPath)
	if cfg == nil {
		exitErr("config", err)
	}
	if err != nil && strict {
		exitErr("config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DBPath)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return server.NewLogger(cfg.Env, cfg.LogLevel)
}

// newEngine wires the engine. With providers=false the embedder and
// estimator are left out, which is enough for every operation except Estimate.
func newEngine(cfg *config.Config, s store.Store, providers bool, metrics *ranking.Metrics) *ranking.Engine {
	var (
		emb embedding.Embedder
		est estimate.Estimator
	)
	if providers {
		var err error
		emb, err = embedding.New(embedding.Config{
			Provider: cfg.EmbedProvider,
			Model:    cfg.EmbedModel,
			URL:      cfg.EmbedURL,
			APIKey:   cfg.OpenAIAPIKey,
			Timeout:  cfg.RequestTimeout,
		})
		if err != nil {
			exitErr("embedding", err)
		}
		est = estimate.NewOpenAIEstimator(cfg.EstimateURL, cfg.OpenAIAPIKey, cfg.EstimateModel, cfg.RequestTimeout)
	}
	return ranking.New(s, emb, est, ranking.Options{
		Thresholds: &ranking.Thresholds{
			Duplicate: cfg.DuplicateThreshold,
			Candidate: cfg.CandidateThreshold,
		},
		Logger:  newLogger(cfg),
		Metrics: metrics,
	})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
