// Package mcp parses MCP command flags and wires the challenge engine to
// the stdio transport.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/louisbranch/crucible/internal/challenge/retry"
	"github.com/louisbranch/crucible/internal/challenge/service"
	"github.com/louisbranch/crucible/internal/mcp"
	"github.com/louisbranch/crucible/internal/platform/config"
	"github.com/louisbranch/crucible/internal/platform/otel"
	"github.com/louisbranch/crucible/internal/reasoning"
	"github.com/louisbranch/crucible/internal/storage/sqlite"
)

// Config holds MCP command configuration.
type Config struct {
	StorePath     string `env:"CRUCIBLE_STORE_PATH"      envDefault:"crucible.db"`
	OpenAIAPIKey  string `env:"CRUCIBLE_OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"CRUCIBLE_OPENAI_BASE_URL"`
	OpenAIModel   string `env:"CRUCIBLE_OPENAI_MODEL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.StorePath, "store", cfg.StorePath, "path to the SQLite store")
	fs.StringVar(&cfg.OpenAIModel, "model", cfg.OpenAIModel, "reasoning model name")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server on stdio and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	reasoner := reasoning.NewOpenAIService(reasoning.OpenAIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		CompletionsURL: cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
	})
	engine := service.NewEngine(service.Stores{
		Sessions:  store,
		Tasks:     store,
		Penalties: store,
	}, reasoner, retry.NewManager(retry.DefaultConfig()))

	return mcp.NewServer(engine).Serve(ctx)
}
