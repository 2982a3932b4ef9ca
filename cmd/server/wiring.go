package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/safereport/backend/internal/config"
	"github.com/safereport/backend/internal/db"
	"github.com/safereport/backend/internal/registry"
	"github.com/safereport/backend/internal/store"
	"github.com/safereport/backend/internal/triage"
)

func newLogger(cfg config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return log.Level(level).With().Str("service", "safereport").Str("env", cfg.Env).Logger()
}

// openStore connects the configured backend. The returned close func is never nil.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (store.ReportStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case config.StoreMongo:
		m, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.Close(cctx); err != nil {
				logger.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		return m, closeFn, nil
	default:
		logger.Warn().Msg("using in-memory store, reports are lost on restart")
		return store.NewMemStore(), func() {}, nil
	}
}

func loadClassifier(cfg config.Config, reg *registry.Registry) (*triage.Classifier, error) {
	kw, err := triage.LoadKeywords(cfg.KeywordsPath)
	if err != nil {
		return nil, err
	}
	strategy, err := triage.ParseRiskStrategy(cfg.RiskDefault)
	if err != nil {
		return nil, err
	}
	return triage.New(reg, kw, triage.WithRiskStrategy(strategy)), nil
}
