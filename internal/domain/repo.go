package domain

import "context"

// PlaceRepository is the persistence contract for places.
//
// Save inserts when the entity id is zero and fully updates otherwise; the
// returned entity carries the assigned id and the current relation ids.
// relatedIDs follows the nil/empty/non-empty policy: nil keeps existing
// relations, empty clears them, non-empty replaces the whole set, silently
// ignoring ids with no existing counterpart. Relation symmetry is the store's
// responsibility.
type PlaceRepository interface {
	GetByID(ctx context.Context, id int) (*Place, error)
	GetAll(ctx context.Context) ([]Place, error)
	GetAllByIDs(ctx context.Context, ids []int) ([]Place, error)
	Save(ctx context.Context, p *Place, relatedIDs *[]int) (*Place, error)
	DeleteByID(ctx context.Context, id int) error
	ExistsByID(ctx context.Context, id int) (bool, error)
}

// AstroRecordRepository is the persistence contract for observations. Save
// semantics match PlaceRepository.Save; GetAllByIDs omits missing ids without
// error.
type AstroRecordRepository interface {
	GetByID(ctx context.Context, id int) (*AstroRecord, error)
	GetAll(ctx context.Context) ([]AstroRecord, error)
	GetAllByIDs(ctx context.Context, ids []int) ([]AstroRecord, error)
	GetByPlaceID(ctx context.Context, placeID int) ([]AstroRecord, error)
	GetByDateAndPlaceName(ctx context.Context, date Date, placeName string) ([]AstroRecord, error)
	Save(ctx context.Context, rec *AstroRecord, relatedIDs *[]int) (*AstroRecord, error)
	DeleteByID(ctx context.Context, id int) error
	ExistsByID(ctx context.Context, id int) (bool, error)
}
