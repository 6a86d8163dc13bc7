package cache

import "github.com/mkarev/suntrack/internal/domain"

// Caches bundles the four stores shared by both services. It is constructed
// once in main and injected, so "who may mutate what" is visible from
// constructor signatures. Each service writes its own kind and invalidates
// counterpart entries when a relation changes.
type Caches struct {
	Places      *EntityStore[domain.Place]
	PlaceLists  *CollectionStore[domain.Place]
	Records     *EntityStore[domain.AstroRecord]
	RecordLists *CollectionStore[domain.AstroRecord]
}

// New builds the shared caches. listCapacity bounds the two collection
// stores; entity stores are unbounded.
func New(listCapacity int) (*Caches, error) {
	placeLists, err := NewCollectionStore[domain.Place](listCapacity)
	if err != nil {
		return nil, err
	}
	recordLists, err := NewCollectionStore[domain.AstroRecord](listCapacity)
	if err != nil {
		return nil, err
	}
	return &Caches{
		Places:      NewEntityStore[domain.Place](),
		PlaceLists:  placeLists,
		Records:     NewEntityStore[domain.AstroRecord](),
		RecordLists: recordLists,
	}, nil
}
