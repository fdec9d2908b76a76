// Package container provides dependency injection for the application. It
// centralizes the creation and wiring of all components, making them
// explicit and testable.
package container

import (
	"context"
	"fmt"

	"github.com/rullmann/portfolio-now-sub005/internal/assistant"
	"github.com/rullmann/portfolio-now-sub005/internal/backend"
	"github.com/rullmann/portfolio-now-sub005/internal/chat"
	"github.com/rullmann/portfolio-now-sub005/internal/common"
	"github.com/rullmann/portfolio-now-sub005/internal/config"
	"github.com/rullmann/portfolio-now-sub005/internal/dateutils"
	"github.com/rullmann/portfolio-now-sub005/internal/enrichment"
	"github.com/rullmann/portfolio-now-sub005/internal/executor"
	"github.com/rullmann/portfolio-now-sub005/internal/extraction"
	"github.com/rullmann/portfolio-now-sub005/internal/fileutils"
	"github.com/rullmann/portfolio-now-sub005/internal/logging"
	"github.com/rullmann/portfolio-now-sub005/internal/store"
	"github.com/rullmann/portfolio-now-sub005/internal/suggestion"
	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies. It is immutable after
// creation: all fields are private and reachable only through getters.
type Container struct {
	logger   *logrus.Logger
	config   *config.Config
	store    store.Store
	backend  *backend.LocalBackend
	aiClient assistant.Client
	enricher *enrichment.Enricher
	executor *executor.Executor
	manager  *suggestion.Manager
	session  *chat.Session
}

// NewContainer creates and wires all application dependencies. When the AI
// client cannot be constructed (disabled, or no API key) the chat session is
// nil and chat commands must refuse to run; extraction-adjacent commands
// still work.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrus(cfg.Log.Level, cfg.Log.Format)
	distributeLogger(logger)

	fileStore := store.NewFileStore(cfg.Data.Directory)
	localBackend := backend.NewLocalBackend(cfg.Data.Directory)
	enricher := enrichment.New(localBackend)

	if cfg.Import.CSVDelimiter != "" {
		common.SetDelimiter([]rune(cfg.Import.CSVDelimiter)[0])
	}

	exec := executor.New(localBackend, enricher, executor.Options{
		PortfolioID:  cfg.Import.DefaultPortfolio,
		DeliveryMode: cfg.Import.DeliveryMode,
	})
	manager := suggestion.NewManager(fileStore, exec)

	var aiClient assistant.Client
	var session *chat.Session
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		client, err := assistant.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create assistant client: %w", err)
		}
		aiClient = client
		session = chat.NewSession(fileStore, aiClient, cfg.Chat.ContextWindowSize)
		session.BaseCurrency = cfg.Chat.BaseCurrency
		session.UserName = cfg.Chat.UserName
		logger.WithFields(logrus.Fields{
			logging.FieldProvider: cfg.AI.Provider,
			logging.FieldModel:    cfg.AI.Model,
		}).Info("Assistant enabled")
	} else {
		logger.Info("Assistant disabled, chat commands unavailable")
	}

	return &Container{
		logger:   logger,
		config:   cfg,
		store:    fileStore,
		backend:  localBackend,
		aiClient: aiClient,
		enricher: enricher,
		executor: exec,
		manager:  manager,
		session:  session,
	}, nil
}

// distributeLogger hands the shared logger to every package-level logger.
func distributeLogger(logger *logrus.Logger) {
	assistant.SetLogger(logger)
	backend.SetLogger(logger)
	chat.SetLogger(logger)
	common.SetLogger(logger)
	dateutils.SetLogger(logger)
	enrichment.SetLogger(logger)
	executor.SetLogger(logger)
	extraction.SetLogger(logger)
	fileutils.SetLogger(logger)
	store.SetLogger(logger)
	suggestion.SetLogger(logger)
}

// Close releases resources held by the container.
func (c *Container) Close() error {
	if c.aiClient != nil {
		return c.aiClient.Close()
	}
	return nil
}

// GetLogger returns the shared logger.
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}

// GetConfig returns the application configuration.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the conversation store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetEnricher returns the holdings enricher.
func (c *Container) GetEnricher() *enrichment.Enricher {
	return c.enricher
}

// GetExecutor returns the action executor.
func (c *Container) GetExecutor() *executor.Executor {
	return c.executor
}

// GetSuggestionManager returns the suggestion lifecycle manager.
func (c *Container) GetSuggestionManager() *suggestion.Manager {
	return c.manager
}

// GetSession returns the chat session, or nil when the assistant is
// disabled.
func (c *Container) GetSession() *chat.Session {
	return c.session
}
