package cli

import (
	"context"
	"fmt"
	"time"

	vision "google.golang.org/api/vision/v1"

	"financepro/internal/aggregate"
	"financepro/internal/cache"
	"financepro/internal/config"
	"financepro/internal/googleauth"
	applog "financepro/internal/log"
	"financepro/internal/ocr"
	"financepro/internal/services"
	"financepro/internal/store"
)

const dashboardCacheSize = 512

// Finance bundles the service with the background pieces it owns.
type Finance struct {
	*services.FinanceService
	caches *cache.Manager
}

// Close stops the cache sweeper and closes the store.
func (f *Finance) Close() error {
	if f.caches != nil {
		f.caches.Stop()
	}
	return f.FinanceService.Close()
}

// NewFinance wires the finance service from cfg. publisher may be nil.
func NewFinance(ctx context.Context, logger *applog.Logger, cfg *config.Config, st store.Store, publisher services.Publisher) (*Finance, error) {
	opts := services.Options{
		Capabilities: cfg.Capabilities(),
		OCRLanguage:  cfg.OCRLanguage,
	}
	if publisher != nil {
		opts.Publisher = publisher
	}

	var manager *cache.Manager
	if cfg.CacheTTL > 0 {
		dashboards := cache.NewLRUCache[aggregate.Dashboard](dashboardCacheSize, cfg.CacheTTL)
		manager = cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
		manager.Register(dashboards)
		manager.StartCleanup(cfg.CacheTTL)
		opts.Dashboards = dashboards
	}

	if cfg.FeatureOCR {
		rec, err := newRecognizer(ctx, cfg)
		if err != nil {
			if manager != nil {
				manager.Stop()
			}
			return nil, err
		}
		opts.Recognizer = rec
		logger.Info("Receipt recognition enabled", "language", cfg.OCRLanguage)
	}

	return &Finance{
		FinanceService: services.NewFinanceService(st, opts),
		caches:         manager,
	}, nil
}

func newRecognizer(ctx context.Context, cfg *config.Config) (ocr.Recognizer, error) {
	clientOpts, err := googleauth.Options(ctx, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile, vision.CloudVisionScope)
	if err != nil {
		return nil, fmt.Errorf("vision credentials: %w", err)
	}
	v, err := ocr.NewVisionRecognizer(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return ocr.NewCachedRecognizer(v, 15*time.Minute), nil
}
