package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/safereport/backend/internal/config"
	"github.com/safereport/backend/internal/geocode"
	httpapi "github.com/safereport/backend/internal/http"
	"github.com/safereport/backend/internal/identifier"
	"github.com/safereport/backend/internal/intake"
	"github.com/safereport/backend/internal/lifecycle"
	"github.com/safereport/backend/internal/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := cmd.Context()
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return err
	}
	classifier, err := loadClassifier(cfg, reg)
	if err != nil {
		return err
	}

	mgr := &lifecycle.Manager{
		Store:         st,
		Registry:      reg,
		Classifier:    classifier,
		IDs:           identifier.New(cfg.IDExcludeAmbiguous),
		Country:       cfg.CountryDefault,
		MaxIDAttempts: cfg.IDMaxAttempts,
		Logger:        logger,
	}
	if cfg.Geocoder == config.GeocoderNominatim {
		mgr.Geocoder = &geocode.NominatimGeocoder{BaseURL: cfg.GeocoderURL}
		logger.Info().Str("url", cfg.GeocoderURL).Msg("geocoding enabled")
	}

	svc := &intake.Service{
		Orchestrator: intake.Orchestrator{Registry: reg},
		Drafts:       intake.NewDraftStore(cfg.DraftTTL, nil),
		Submitter:    mgr,
		Logger:       logger,
	}

	router := httpapi.Router(cfg, httpapi.Deps{
		Registry:  reg,
		Intake:    svc,
		Lifecycle: mgr,
		Store:     st,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreDriver).
			Str("registry_version", reg.Version()).
			Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
	return nil
}
