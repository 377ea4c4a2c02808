package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

const (
	cacheKeyPeriods = "lookup:periods"
	cacheKeyEPSites = "lookup:ep_sites"
)

type lookupCatalogRepo interface {
	ListPeriods(ctx context.Context) ([]models.Period, error)
	CurrentPeriod(ctx context.Context) (*models.Period, error)
	ListEPSites(ctx context.Context) ([]models.EPSite, error)
}

// LookupCacheStore is the cache backend consumed by LookupService.
type LookupCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type lookupMetrics interface {
	RecordCacheLookup(hit bool)
}

// LookupService serves the read-only catalog views with optional cache-aside
// caching. The catalog changes rarely, so a stale window of one TTL is fine.
type LookupService struct {
	catalog lookupCatalogRepo
	cache   LookupCacheStore
	metrics lookupMetrics
	ttl     time.Duration
	enabled bool
	logger  *zap.Logger
}

// NewLookupService constructs LookupService. A nil cache disables caching
// regardless of the enabled flag.
func NewLookupService(catalog lookupCatalogRepo, cache LookupCacheStore, metrics lookupMetrics, enabled bool, ttl time.Duration, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		enabled = false
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LookupService{catalog: catalog, cache: cache, metrics: metrics, ttl: ttl, enabled: enabled, logger: logger}
}

// ListPeriods returns all academic periods.
func (s *LookupService) ListPeriods(ctx context.Context) ([]models.Period, error) {
	if s.enabled {
		var cached []models.Period
		if err := s.cache.Get(ctx, cacheKeyPeriods, &cached); err == nil {
			s.recordLookup(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("period cache read failed", zap.Error(err))
		}
		s.recordLookup(false)
	}
	periods, err := s.catalog.ListPeriods(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	s.store(ctx, cacheKeyPeriods, periods)
	return periods, nil
}

// CurrentPeriod returns the period flagged as current.
func (s *LookupService) CurrentPeriod(ctx context.Context) (*models.Period, error) {
	period, err := s.catalog.CurrentPeriod(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current academic period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}
	return period, nil
}

// ListEPSites returns every EP-site with names resolved.
func (s *LookupService) ListEPSites(ctx context.Context) ([]models.EPSite, error) {
	if s.enabled {
		var cached []models.EPSite
		if err := s.cache.Get(ctx, cacheKeyEPSites, &cached); err == nil {
			s.recordLookup(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("ep-site cache read failed", zap.Error(err))
		}
		s.recordLookup(false)
	}
	sites, err := s.catalog.ListEPSites(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ep-sites")
	}
	s.store(ctx, cacheKeyEPSites, sites)
	return sites, nil
}

func (s *LookupService) store(ctx context.Context, key string, value interface{}) {
	if !s.enabled {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *LookupService) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}
