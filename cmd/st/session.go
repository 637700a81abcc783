package main

import (
	"context"
	"fmt"
	"os"

	"star-task/internal/api"
	"star-task/internal/briefing"
	"star-task/internal/cli"
	"star-task/internal/config"
	"star-task/internal/logging"
	"star-task/internal/repository/sqlite"
	"star-task/internal/services"
	"star-task/internal/storage"
	"star-task/internal/tui"
	"star-task/internal/validation"
)

// Environment represents the current environment
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// SessionFactory wires storage, briefings and the business API for one run
type SessionFactory struct {
	env Environment
}

// NewSessionFactory creates a new session factory for the given environment
func NewSessionFactory(env Environment) *SessionFactory {
	return &SessionFactory{env: env}
}

// Bootstrap builds the session once the final configuration is known
func (sf *SessionFactory) Bootstrap(ctx context.Context, cfg *config.Config) (*cli.Session, error) {
	logger, err := sf.createLogger(cfg)
	if err != nil {
		return nil, err
	}
	logger.SetDebug(cfg.Application.Verbose || logging.DebugEnabled())

	repo, err := sf.createRepository(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}

	snapshot := storage.NewSnapshot(repo, cfg.Storage.Key)
	store, err := services.NewTaskStore(ctx, snapshot, services.WithLogger(logger))
	if err != nil {
		repo.Close()
		logger.Close()
		return nil, fmt.Errorf("failed to load mission log: %w", err)
	}

	provider := briefing.NewFromConfig(ctx, cfg, logger)
	businessAPI := api.NewBusinessAPIWithOptions(store, provider, api.Options{
		Validator: validation.NewTaskValidatorWithConfig(cfg),
		Logger:    logger,
	})
	logger.Infof("session opened (%s): %d active, %d archived",
		sf.env, store.Counts().Active, store.Counts().Archive)

	return &cli.Session{
		API: businessAPI,
		Interactive: func(ctx context.Context) error {
			return tui.Run(ctx, businessAPI,
				tui.WithLogger(logger),
				tui.WithTimeFormat(cfg.Display.TimeFormat),
			)
		},
		Close: func() error {
			err := repo.Close()
			logger.Close()
			return err
		},
	}, nil
}

// createLogger writes to the data directory, except in tests
func (sf *SessionFactory) createLogger(cfg *config.Config) (*logging.Logger, error) {
	if sf.env == Testing {
		return logging.Discard(), nil
	}
	logger, err := logging.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logger, nil
}

// createRepository creates a repository instance based on the current environment
func (sf *SessionFactory) createRepository(cfg *config.Config) (*sqlite.SQLiteRepository, error) {
	switch sf.env {
	case Testing:
		// in-memory, nothing survives the process
		return config.CreateTestRepository()
	case Development:
		// a local database file in the working directory
		devCfg := *cfg
		devCfg.Storage.Dir = "."
		return config.CreateRepository(&devCfg)
	default:
		return config.CreateRepository(cfg)
	}
}

// GetEnvironment determines the current environment from ST_ENV
func GetEnvironment() Environment {
	switch os.Getenv("ST_ENV") {
	case "development":
		return Development
	case "testing":
		return Testing
	default:
		// Default to production for safety
		return Production
	}
}
