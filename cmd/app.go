package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/config"
	"github.com/kozaktomas/event-gallery/internal/embedding"
	"github.com/kozaktomas/event-gallery/internal/facematch"
	"github.com/kozaktomas/event-gallery/internal/logging"
	"github.com/kozaktomas/event-gallery/internal/matchrun"
)

// app holds the clients shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	catalog  *catalog.Client
	detector *embedding.Client
}

// newApp loads and validates configuration and builds the service clients.
func newApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cat, err := catalog.New(cfg.Catalog.URL, catalog.WithPageSize(cfg.Catalog.PageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  cat,
		detector: embedding.NewClient(cfg.Embedding.URL),
	}, nil
}

// controller builds a match run controller from the configuration.
func (a *app) controller(workers int, onProgress func(runID string, p matchrun.Progress)) *matchrun.Controller {
	if workers <= 0 {
		workers = a.cfg.Matching.Workers
	}
	return matchrun.NewController(a.catalog, a.catalog, a.detector, a.logger, matchrun.Options{
		Workers:       workers,
		DetectTimeout: a.cfg.Matching.DetectTimeout,
		Thresholds: facematch.Thresholds{
			Match:   a.cfg.Matching.MatchThreshold,
			Gallery: a.cfg.Matching.GalleryThreshold,
		},
		OnProgress: onProgress,
	})
}
