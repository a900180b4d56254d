package repository

import (
	"context"
	"errors"
	"time"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	"StratForge/pkg/cache"
	applogger "StratForge/pkg/logger"
)

// CachedManifestStore is a read-through cache in front of a ManifestStore.
// Manifests are immutable once written, so cached entries never go stale.
type CachedManifestStore struct {
	inner domrepo.ManifestStore
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedManifestStore(inner domrepo.ManifestStore, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedManifestStore {
	return &CachedManifestStore{inner: inner, cache: c, ttl: ttl, l: l}
}

func (s *CachedManifestStore) Save(ctx context.Context, runID string, m *models.Manifest) error {
	if err := s.inner.Save(ctx, runID, m); err != nil {
		return err
	}
	if err := s.cache.Set(ctx, s.key(runID), m, s.ttl); err != nil && s.l != nil {
		s.l.Warn("manifest cache set failed", applogger.String("run_id", runID), applogger.Error(err))
	}
	return nil
}

func (s *CachedManifestStore) Load(ctx context.Context, runID string) (*models.Manifest, error) {
	var m models.Manifest
	err := s.cache.Get(ctx, s.key(runID), &m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && s.l != nil {
		s.l.Warn("manifest cache get failed", applogger.String("run_id", runID), applogger.Error(err))
	}

	loaded, err := s.inner.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, s.key(runID), loaded, s.ttl); err != nil && s.l != nil {
		s.l.Warn("manifest cache set failed", applogger.String("run_id", runID), applogger.Error(err))
	}
	return loaded, nil
}

func (s *CachedManifestStore) key(runID string) string {
	return cache.GenerateKey("manifest", runID)
}

var _ domrepo.ManifestStore = (*CachedManifestStore)(nil)
