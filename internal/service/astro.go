package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/cache"
	"github.com/mkarev/suntrack/internal/domain"
	"github.com/mkarev/suntrack/internal/observability"
)

//go:generate mockgen -source internal/service/astro.go -destination=internal/service/enricher_mock_test.go -package=service

// Enricher resolves sunrise/sunset for a coordinate pair and date.
type Enricher interface {
	Fetch(ctx context.Context, lat, lng float64, date domain.Date) (domain.SunTimes, error)
}

type AstroRecordService struct {
	repo     domain.AstroRecordRepository
	enricher Enricher
	caches   *cache.Caches
	logger   *zap.Logger
	metrics  observability.Metrics
}

func NewAstroRecordService(repo domain.AstroRecordRepository, enricher Enricher, caches *cache.Caches, logger *zap.Logger, metrics observability.Metrics) *AstroRecordService {
	return &AstroRecordService{
		repo:     repo,
		enricher: enricher,
		caches:   caches,
		logger:   logger,
		metrics:  metrics,
	}
}

func validateObservation(in domain.AstroRecordInput) error {
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if math.IsNaN(in.Latitude) || in.Latitude < -90 || in.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", domain.ErrValidation, in.Latitude)
	}
	if math.IsNaN(in.Longitude) || in.Longitude < -180 || in.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", domain.ErrValidation, in.Longitude)
	}
	return nil
}

// enrich must fully resolve before any store or cache write so that a failed
// call leaves both exactly as they were.
func (s *AstroRecordService) enrich(ctx context.Context, in domain.AstroRecordInput) (domain.SunTimes, error) {
	t0 := time.Now()
	sun, err := s.enricher.Fetch(ctx, in.Latitude, in.Longitude, in.Date)
	s.metrics.ObserveEnrichment(sinceMs(t0), err == nil)
	if err != nil {
		s.logger.Error("enrichment failed",
			zap.Float64("lat", in.Latitude),
			zap.Float64("lng", in.Longitude),
			zap.String("date", in.Date.String()),
			zap.Error(err),
		)
	}
	return sun, err
}

func (s *AstroRecordService) Create(ctx context.Context, in domain.AstroRecordInput) (*domain.AstroRecord, error) {
	if err := validateObservation(in); err != nil {
		return nil, err
	}

	sun, err := s.enrich(ctx, in)
	if err != nil {
		return nil, err
	}

	t0 := time.Now()
	rec := &domain.AstroRecord{
		Date:      in.Date,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Sunrise:   sun.Sunrise,
		Sunset:    sun.Sunset,
	}
	saved, err := s.repo.Save(ctx, rec, in.PlaceIDs)
	if err != nil {
		s.logger.Error("astro record create failed", zap.Error(err))
		return nil, err
	}

	s.caches.Records.Set(cache.EntityKey(cache.KindAstroRecord, saved.ID), *saved)
	s.caches.RecordLists.Remove(cache.AllKey(cache.KindAstroRecord))
	s.invalidatePlaces(saved.PlaceIDs)

	s.metrics.ObserveMutation(cache.KindAstroRecord, "create", sinceMs(t0))
	s.logger.Info("astro record created", zap.Int("id", saved.ID), zap.String("date", saved.Date.String()))
	return saved, nil
}

func (s *AstroRecordService) GetByID(ctx context.Context, id int) (*domain.AstroRecord, error) {
	key := cache.EntityKey(cache.KindAstroRecord, id)
	t0 := time.Now()

	if rec, ok := s.caches.Records.Get(key); ok {
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceCache, sinceMs(t0))
		s.logger.Debug("astro record cache hit", zap.Int("id", id))
		return &rec, nil
	}
	s.metrics.IncCacheMiss()

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.caches.Records.Set(key, *rec)
	s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceStore, sinceMs(t0))
	s.logger.Debug("astro record fetched from store", zap.Int("id", id))
	return rec, nil
}

func (s *AstroRecordService) GetAll(ctx context.Context) ([]domain.AstroRecord, error) {
	key := cache.AllKey(cache.KindAstroRecord)
	t0 := time.Now()

	if recs, ok := s.caches.RecordLists.Get(key); ok {
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceCache, sinceMs(t0))
		return recs, nil
	}
	s.metrics.IncCacheMiss()

	recs, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		s.caches.Records.Set(cache.EntityKey(cache.KindAstroRecord, rec.ID), rec)
	}
	s.caches.RecordLists.Set(key, recs)
	s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceStore, sinceMs(t0))
	return recs, nil
}

func (s *AstroRecordService) Update(ctx context.Context, id int, in domain.AstroRecordInput) (*domain.AstroRecord, error) {
	if err := validateObservation(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Coordinates or date may have moved, so the stored sun times are
	// re-resolved before anything is written.
	sun, err := s.enrich(ctx, in)
	if err != nil {
		return nil, err
	}

	prior := existing.PlaceIDs
	existing.Date = in.Date
	existing.Latitude = in.Latitude
	existing.Longitude = in.Longitude
	existing.Sunrise = sun.Sunrise
	existing.Sunset = sun.Sunset

	t0 := time.Now()
	saved, err := s.repo.Save(ctx, existing, in.PlaceIDs)
	if err != nil {
		s.logger.Error("astro record update failed", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	s.caches.Records.Set(cache.EntityKey(cache.KindAstroRecord, id), *saved)
	s.caches.RecordLists.Remove(cache.AllKey(cache.KindAstroRecord))
	if in.PlaceIDs != nil {
		s.invalidatePlaces(union(prior, saved.PlaceIDs))
	}

	s.metrics.ObserveMutation(cache.KindAstroRecord, "update", sinceMs(t0))
	s.logger.Info("astro record updated", zap.Int("id", id))
	return saved, nil
}

func (s *AstroRecordService) Delete(ctx context.Context, id int) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	t0 := time.Now()
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("astro record delete failed", zap.Int("id", id), zap.Error(err))
		return err
	}

	s.caches.Records.Remove(cache.EntityKey(cache.KindAstroRecord, id))
	s.caches.RecordLists.Remove(cache.AllKey(cache.KindAstroRecord))
	s.invalidatePlaces(existing.PlaceIDs)

	s.metrics.ObserveMutation(cache.KindAstroRecord, "delete", sinceMs(t0))
	s.logger.Info("astro record deleted", zap.Int("id", id))
	return nil
}

// GetByPlaceID returns the records observed for one place. The derived entry
// is populated on miss but never invalidated by writes; it may serve stale
// membership until capacity eviction drops it.
func (s *AstroRecordService) GetByPlaceID(ctx context.Context, placeID int) ([]domain.AstroRecord, error) {
	key := cache.ByRelationKey(cache.KindAstroRecord, placeID)
	t0 := time.Now()

	if recs, ok := s.caches.RecordLists.Get(key); ok {
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceCache, sinceMs(t0))
		return recs, nil
	}
	s.metrics.IncCacheMiss()

	recs, err := s.repo.GetByPlaceID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		s.caches.Records.Set(cache.EntityKey(cache.KindAstroRecord, rec.ID), rec)
	}
	s.caches.RecordLists.Set(key, recs)
	s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceStore, sinceMs(t0))
	return recs, nil
}

// GetByDateAndPlaceName shares GetByPlaceID's staleness trade-off.
func (s *AstroRecordService) GetByDateAndPlaceName(ctx context.Context, date domain.Date, placeName string) ([]domain.AstroRecord, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	key := cache.ByDateNameKey(cache.KindAstroRecord, date.String(), placeName)
	t0 := time.Now()

	if recs, ok := s.caches.RecordLists.Get(key); ok {
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceCache, sinceMs(t0))
		return recs, nil
	}
	s.metrics.IncCacheMiss()

	recs, err := s.repo.GetByDateAndPlaceName(ctx, date, placeName)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		s.caches.Records.Set(cache.EntityKey(cache.KindAstroRecord, rec.ID), rec)
	}
	s.caches.RecordLists.Set(key, recs)
	s.metrics.ObserveLookup(cache.KindAstroRecord, observability.SourceStore, sinceMs(t0))
	return recs, nil
}

// invalidatePlaces mirrors PlaceService.invalidateRecords for the opposite
// direction of the relation.
func (s *AstroRecordService) invalidatePlaces(placeIDs []int) {
	if len(placeIDs) == 0 {
		return
	}
	for _, id := range placeIDs {
		s.caches.Places.Remove(cache.EntityKey(cache.KindPlace, id))
	}
	s.caches.PlaceLists.Remove(cache.AllKey(cache.KindPlace))
}
