package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/adapter"
	"github.com/leapstack-labs/leapdash/internal/cli/config"
	"github.com/leapstack-labs/leapdash/internal/dashboard"
	"github.com/leapstack-labs/leapdash/internal/engine"
	"github.com/leapstack-labs/leapdash/internal/llm"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
}

// NewCommandContext connects the warehouse and builds the engine.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, cleanup, err := createEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Engine: eng,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine is for commands that don't need a
// warehouse connection.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    getConfig(),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// getConfig returns the current configuration, falling back to
// defaults when no load has happened (e.g. in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Warehouse: config.WarehouseConfig{Type: config.DefaultWarehouseType},
		LLM: config.LLMConfig{
			Endpoint:    config.DefaultEndpoint,
			Model:       config.DefaultModel,
			Suggestions: true,
			Insights:    true,
			FollowUps:   true,
		},
		Server: config.ServerConfig{Port: config.DefaultServerPort},
		Output: config.DefaultOutput,
	}
}

// connectAdapter resolves and connects the configured warehouse
// adapter.
func connectAdapter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	acfg := adapter.Config{
		Type:     cfg.Warehouse.Type,
		Path:     cfg.Warehouse.Path,
		Host:     cfg.Warehouse.Host,
		Port:     cfg.Warehouse.Port,
		Database: cfg.Warehouse.Database,
		Username: cfg.Warehouse.Username,
		Password: cfg.Warehouse.Password,
		Schema:   cfg.Warehouse.Schema,
		Options:  cfg.Warehouse.Options,
	}
	a, err := adapter.New(acfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, acfg); err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	return a, nil
}

// createEngine wires adapter, completion client, and assembler into an
// engine.
func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, func(), error) {
	a, err := connectAdapter(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = a.Close() }

	client, err := llm.NewHTTPClient(llm.Config{
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to configure completion client: %w", err)
	}

	advisor := llm.NewAdvisor(client, logger)

	assemblerOpts := []dashboard.Option{dashboard.WithLogger(logger)}
	if cfg.LLM.Insights {
		assemblerOpts = append(assemblerOpts, dashboard.WithNarrator(advisor))
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithAssembler(dashboard.New(assemblerOpts...)),
	}
	if cfg.LLM.Suggestions {
		engineOpts = append(engineOpts, engine.WithSuggester(advisor))
	}
	if cfg.LLM.FollowUps {
		engineOpts = append(engineOpts, engine.WithFollowUps(advisor))
	}

	gen := llm.NewQueryGenerator(client, logger)
	return engine.New(a, gen, engineOpts...), cleanup, nil
}
