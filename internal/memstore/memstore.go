// Package memstore is an in-memory record store. Entities live in id-indexed
// maps and the place/record relation is kept as two adjacency mappings that
// are always updated together under one lock, so symmetry is structural
// rather than a convention each writer has to remember.
package memstore

import (
	"sort"
	"sync"

	"github.com/mkarev/suntrack/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	nextPlaceID  int
	nextRecordID int

	places  map[int]domain.Place
	records map[int]domain.AstroRecord

	// placeRecords and recordPlaces mirror each other; every link edit
	// touches both.
	placeRecords map[int]map[int]struct{}
	recordPlaces map[int]map[int]struct{}
}

func New() *Store {
	return &Store{
		places:       make(map[int]domain.Place),
		records:      make(map[int]domain.AstroRecord),
		placeRecords: make(map[int]map[int]struct{}),
		recordPlaces: make(map[int]map[int]struct{}),
	}
}

// Places returns the place-side repository view of the store.
func (s *Store) Places() domain.PlaceRepository { return &placeRepo{s: s} }

// Records returns the record-side repository view of the store.
func (s *Store) Records() domain.AstroRecordRepository { return &recordRepo{s: s} }

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Store) placeView(id int) domain.Place {
	p := s.places[id]
	p.RecordIDs = sortedIDs(s.placeRecords[id])
	return p
}

func (s *Store) recordView(id int) domain.AstroRecord {
	r := s.records[id]
	r.PlaceIDs = sortedIDs(s.recordPlaces[id])
	return r
}

// relink replaces the relation set of one entity. want ids with no existing
// counterpart are dropped silently.
func relink(owner int, want []int, exists map[int]struct{}, forward, inverse map[int]map[int]struct{}) {
	for other := range forward[owner] {
		delete(inverse[other], owner)
	}
	next := make(map[int]struct{}, len(want))
	for _, other := range want {
		if _, ok := exists[other]; !ok {
			continue
		}
		next[other] = struct{}{}
		if inverse[other] == nil {
			inverse[other] = make(map[int]struct{})
		}
		inverse[other][owner] = struct{}{}
	}
	forward[owner] = next
}

func (s *Store) recordIDSet() map[int]struct{} {
	set := make(map[int]struct{}, len(s.records))
	for id := range s.records {
		set[id] = struct{}{}
	}
	return set
}

func (s *Store) placeIDSet() map[int]struct{} {
	set := make(map[int]struct{}, len(s.places))
	for id := range s.places {
		set[id] = struct{}{}
	}
	return set
}
