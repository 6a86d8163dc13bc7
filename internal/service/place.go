package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/cache"
	"github.com/mkarev/suntrack/internal/domain"
	"github.com/mkarev/suntrack/internal/observability"
)

type PlaceService struct {
	repo    domain.PlaceRepository
	caches  *cache.Caches
	logger  *zap.Logger
	metrics observability.Metrics
}

func NewPlaceService(repo domain.PlaceRepository, caches *cache.Caches, logger *zap.Logger, metrics observability.Metrics) *PlaceService {
	return &PlaceService{
		repo:    repo,
		caches:  caches,
		logger:  logger,
		metrics: metrics,
	}
}

func validatePlaceInput(in domain.PlaceInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return nil
}

func (s *PlaceService) Create(ctx context.Context, in domain.PlaceInput) (*domain.Place, error) {
	if err := validatePlaceInput(in); err != nil {
		return nil, err
	}

	t0 := time.Now()
	saved, err := s.repo.Save(ctx, &domain.Place{Name: in.Name, Country: in.Country}, in.RecordIDs)
	if err != nil {
		s.logger.Error("place create failed", zap.Error(err))
		return nil, err
	}

	s.caches.Places.Set(cache.EntityKey(cache.KindPlace, saved.ID), *saved)
	s.caches.PlaceLists.Remove(cache.AllKey(cache.KindPlace))
	s.invalidateRecords(saved.RecordIDs)

	s.metrics.ObserveMutation(cache.KindPlace, "create", sinceMs(t0))
	s.logger.Info("place created", zap.Int("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

func (s *PlaceService) GetByID(ctx context.Context, id int) (*domain.Place, error) {
	key := cache.EntityKey(cache.KindPlace, id)
	t0 := time.Now()

	if p, ok := s.caches.Places.Get(key); ok {
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(cache.KindPlace, observability.SourceCache, sinceMs(t0))
		s.logger.Debug("place cache hit", zap.Int("id", id))
		return &p, nil
	}
	s.metrics.IncCacheMiss()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.caches.Places.Set(key, *p)
	s.metrics.ObserveLookup(cache.KindPlace, observability.SourceStore, sinceMs(t0))
	s.logger.Debug("place fetched from store", zap.Int("id", id))
	return p, nil
}

func (s *PlaceService) GetAll(ctx context.Context) ([]domain.Place, error) {
	key := cache.AllKey(cache.KindPlace)
	t0 := time.Now()

	if ps, ok := s.caches.PlaceLists.Get(key); ok {
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(cache.KindPlace, observability.SourceCache, sinceMs(t0))
		return ps, nil
	}
	s.metrics.IncCacheMiss()

	ps, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		s.caches.Places.Set(cache.EntityKey(cache.KindPlace, p.ID), p)
	}
	s.caches.PlaceLists.Set(key, ps)
	s.metrics.ObserveLookup(cache.KindPlace, observability.SourceStore, sinceMs(t0))
	return ps, nil
}

func (s *PlaceService) Update(ctx context.Context, id int, in domain.PlaceInput) (*domain.Place, error) {
	if err := validatePlaceInput(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prior := existing.RecordIDs
	existing.Name = in.Name
	existing.Country = in.Country

	t0 := time.Now()
	saved, err := s.repo.Save(ctx, existing, in.RecordIDs)
	if err != nil {
		s.logger.Error("place update failed", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	s.caches.Places.Set(cache.EntityKey(cache.KindPlace, id), *saved)
	s.caches.PlaceLists.Remove(cache.AllKey(cache.KindPlace))
	if in.RecordIDs != nil {
		s.invalidateRecords(union(prior, saved.RecordIDs))
	}

	s.metrics.ObserveMutation(cache.KindPlace, "update", sinceMs(t0))
	s.logger.Info("place updated", zap.Int("id", id))
	return saved, nil
}

func (s *PlaceService) Delete(ctx context.Context, id int) error {
	// Existence check goes to the store, not the cache; it also yields the
	// prior relation ids needed for counterpart invalidation.
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	t0 := time.Now()
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("place delete failed", zap.Int("id", id), zap.Error(err))
		return err
	}

	s.caches.Places.Remove(cache.EntityKey(cache.KindPlace, id))
	s.caches.PlaceLists.Remove(cache.AllKey(cache.KindPlace))
	s.invalidateRecords(existing.RecordIDs)

	s.metrics.ObserveMutation(cache.KindPlace, "delete", sinceMs(t0))
	s.logger.Info("place deleted", zap.Int("id", id))
	return nil
}

// invalidateRecords drops the astro-record entries whose place_ids changed as
// a side effect of a place write. Without this a cached record would keep
// serving a relation set the store no longer holds. Derived-query entries are
// deliberately left alone.
func (s *PlaceService) invalidateRecords(recordIDs []int) {
	if len(recordIDs) == 0 {
		return
	}
	for _, id := range recordIDs {
		s.caches.Records.Remove(cache.EntityKey(cache.KindAstroRecord, id))
	}
	s.caches.RecordLists.Remove(cache.AllKey(cache.KindAstroRecord))
}
