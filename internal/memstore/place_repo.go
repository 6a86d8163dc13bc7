package memstore

import (
	"context"
	"sort"

	"github.com/mkarev/suntrack/internal/domain"
)

type placeRepo struct {
	s *Store
}

func (r *placeRepo) GetByID(_ context.Context, id int) (*domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.places[id]; !ok {
		return nil, domain.ErrNotFound
	}
	p := r.s.placeView(id)
	return &p, nil
}

func (r *placeRepo) GetAll(_ context.Context) ([]domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Place, 0, len(r.s.places))
	for id := range r.s.places {
		out = append(out, r.s.placeView(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *placeRepo) GetAllByIDs(_ context.Context, ids []int) ([]domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Place, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.s.places[id]; ok {
			out = append(out, r.s.placeView(id))
		}
	}
	return out, nil
}

func (r *placeRepo) Save(_ context.Context, p *domain.Place, relatedIDs *[]int) (*domain.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == 0 {
		r.s.nextPlaceID++
		p.ID = r.s.nextPlaceID
	} else if _, ok := r.s.places[p.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.s.places[p.ID] = domain.Place{ID: p.ID, Name: p.Name, Country: p.Country}

	if relatedIDs != nil {
		relink(p.ID, *relatedIDs, r.s.recordIDSet(), r.s.placeRecords, r.s.recordPlaces)
	} else if r.s.placeRecords[p.ID] == nil {
		r.s.placeRecords[p.ID] = make(map[int]struct{})
	}

	saved := r.s.placeView(p.ID)
	return &saved, nil
}

func (r *placeRepo) DeleteByID(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.places[id]; !ok {
		return domain.ErrNotFound
	}
	for rec := range r.s.placeRecords[id] {
		delete(r.s.recordPlaces[rec], id)
	}
	delete(r.s.placeRecords, id)
	delete(r.s.places, id)
	return nil
}

func (r *placeRepo) ExistsByID(_ context.Context, id int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.places[id]
	return ok, nil
}
