package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trello-mcp-server/internal/application"
	"trello-mcp-server/internal/domain"
	"trello-mcp-server/internal/infrastructure"
)

const (
	serverName    = "trello-project-updater"
	serverVersion = "1.0.0"
)

type options struct {
	configPath string
	envFile    string
	transport  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "trello-mcp-server",
		Short:        "MCP server exposing Trello board tools",
		Version:      serverVersion,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to an optional YAML configuration file")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment (ignored if missing)")
	cmd.Flags().StringVar(&opts.transport, "transport", "", "Override the transport type (stdio or http)")

	return cmd
}

// loadEnvFile loads a dotenv file without overriding variables already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func run(parent context.Context, opts *options) error {
	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}

	if opts.transport != "" {
		os.Setenv("MCP_TRANSPORT", opts.transport)
	}

	config, err := domain.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := domain.NewLogger(config.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("transport", config.Transport.Type),
		zap.String("board_id", config.Trello.BoardID),
		zap.String("base_url", config.Trello.BaseURL),
	)

	httpClient := domain.NewAuthenticatedClient(domain.CredentialsFromConfig(config), config.Trello.Timeout)
	trelloClient := infrastructure.NewTrelloClient(config.Trello.BaseURL, config.Trello.BoardID, httpClient)

	mapper := domain.NewResponseMapper()
	handler := application.NewTrelloHandler(trelloClient, mapper, application.HandlerOptions{
		SubtaskConcurrency: config.Epic.SubtaskConcurrency,
		Logger:             logger.Named("trello"),
	})
	router := application.NewRequestRouter(mapper, logger.Named("router"), handler)

	var transport domain.Transport
	switch config.Transport.Type {
	case "stdio":
		transport = domain.NewStdioTransport(logger.Named("stdio"))
	case "http":
		transport = domain.NewHTTPTransport(config.Transport.HTTP.Host, config.Transport.HTTP.Port, logger.Named("http"))
	default:
		return fmt.Errorf("invalid transport type: %s", config.Transport.Type)
	}

	server := application.NewServer(transport, router, domain.ServerInfo{
		Name:    serverName,
		Version: serverVersion,
	}, logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	logger.Info("MCP server running", zap.String("transport", config.Transport.Type))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case <-server.Done():
		logger.Info("transport ended")
	}

	if err := server.Close(); err != nil {
		logger.Error("error during server shutdown", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
