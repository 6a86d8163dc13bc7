package memstore

import (
	"context"
	"sort"

	"github.com/mkarev/suntrack/internal/domain"
)

type recordRepo struct {
	s *Store
}

func (r *recordRepo) GetByID(_ context.Context, id int) (*domain.AstroRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.records[id]; !ok {
		return nil, domain.ErrNotFound
	}
	rec := r.s.recordView(id)
	return &rec, nil
}

func (r *recordRepo) GetAll(_ context.Context) ([]domain.AstroRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.AstroRecord, 0, len(r.s.records))
	for id := range r.s.records {
		out = append(out, r.s.recordView(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *recordRepo) GetAllByIDs(_ context.Context, ids []int) ([]domain.AstroRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.AstroRecord, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.s.records[id]; ok {
			out = append(out, r.s.recordView(id))
		}
	}
	return out, nil
}

func (r *recordRepo) GetByPlaceID(_ context.Context, placeID int) ([]domain.AstroRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.AstroRecord, 0, len(r.s.placeRecords[placeID]))
	for _, id := range sortedIDs(r.s.placeRecords[placeID]) {
		out = append(out, r.s.recordView(id))
	}
	return out, nil
}

func (r *recordRepo) GetByDateAndPlaceName(_ context.Context, date domain.Date, placeName string) ([]domain.AstroRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.AstroRecord
	for id, rec := range r.s.records {
		if rec.Date.String() != date.String() {
			continue
		}
		for placeID := range r.s.recordPlaces[id] {
			if r.s.places[placeID].Name == placeName {
				out = append(out, r.s.recordView(id))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *recordRepo) Save(_ context.Context, rec *domain.AstroRecord, relatedIDs *[]int) (*domain.AstroRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec.ID == 0 {
		r.s.nextRecordID++
		rec.ID = r.s.nextRecordID
	} else if _, ok := r.s.records[rec.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.s.records[rec.ID] = domain.AstroRecord{
		ID:        rec.ID,
		Date:      rec.Date,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		Sunrise:   rec.Sunrise,
		Sunset:    rec.Sunset,
	}

	if relatedIDs != nil {
		relink(rec.ID, *relatedIDs, r.s.placeIDSet(), r.s.recordPlaces, r.s.placeRecords)
	} else if r.s.recordPlaces[rec.ID] == nil {
		r.s.recordPlaces[rec.ID] = make(map[int]struct{})
	}

	saved := r.s.recordView(rec.ID)
	return &saved, nil
}

func (r *recordRepo) DeleteByID(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.records[id]; !ok {
		return domain.ErrNotFound
	}
	for placeID := range r.s.recordPlaces[id] {
		delete(r.s.placeRecords[placeID], id)
	}
	delete(r.s.recordPlaces, id)
	delete(r.s.records, id)
	return nil
}

func (r *recordRepo) ExistsByID(_ context.Context, id int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.records[id]
	return ok, nil
}
