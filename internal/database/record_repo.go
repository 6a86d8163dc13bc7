package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mkarev/suntrack/internal/domain"
)

type recordRepo struct {
	db *DB
}

const recordColumns = `id, date, latitude, longitude, sunrise, sunset`

func (r *recordRepo) GetByID(ctx context.Context, id int) (*domain.AstroRecord, error) {
	row := r.db.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id=$1`, recordColumns, r.db.qt(r.db.tables.Record),
	), id)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("record.get", err)
	}

	rec.PlaceIDs, err = r.relatedIDs(ctx, id)
	if err != nil {
		return nil, storeErr("record.get", err)
	}
	return rec, nil
}

func (r *recordRepo) GetAll(ctx context.Context) ([]domain.AstroRecord, error) {
	recs, err := r.scanRecords(ctx, fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY id`, recordColumns, r.db.qt(r.db.tables.Record),
	))
	if err != nil {
		return nil, storeErr("record.get_all", err)
	}
	if err := r.fillRelations(ctx, recs); err != nil {
		return nil, storeErr("record.get_all", err)
	}
	return recs, nil
}

func (r *recordRepo) GetAllByIDs(ctx context.Context, ids []int) ([]domain.AstroRecord, error) {
	if len(ids) == 0 {
		return []domain.AstroRecord{}, nil
	}
	recs, err := r.scanRecords(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = ANY($1) ORDER BY id`, recordColumns, r.db.qt(r.db.tables.Record),
	), ids)
	if err != nil {
		return nil, storeErr("record.get_by_ids", err)
	}
	if err := r.fillRelations(ctx, recs); err != nil {
		return nil, storeErr("record.get_by_ids", err)
	}
	return recs, nil
}

func (r *recordRepo) GetByPlaceID(ctx context.Context, placeID int) ([]domain.AstroRecord, error) {
	recs, err := r.scanRecords(ctx, fmt.Sprintf(
		`SELECT r.id, r.date, r.latitude, r.longitude, r.sunrise, r.sunset
		 FROM %s r
		 JOIN %s pr ON pr.record_id = r.id
		 WHERE pr.place_id = $1 ORDER BY r.id`,
		r.db.qt(r.db.tables.Record), r.db.qt(r.db.tables.Relation),
	), placeID)
	if err != nil {
		return nil, storeErr("record.get_by_place", err)
	}
	if err := r.fillRelations(ctx, recs); err != nil {
		return nil, storeErr("record.get_by_place", err)
	}
	return recs, nil
}

func (r *recordRepo) GetByDateAndPlaceName(ctx context.Context, date domain.Date, placeName string) ([]domain.AstroRecord, error) {
	recs, err := r.scanRecords(ctx, fmt.Sprintf(
		`SELECT DISTINCT r.id, r.date, r.latitude, r.longitude, r.sunrise, r.sunset
		 FROM %s r
		 JOIN %s pr ON pr.record_id = r.id
		 JOIN %s p ON p.id = pr.place_id
		 WHERE r.date = $1 AND p.name = $2 ORDER BY r.id`,
		r.db.qt(r.db.tables.Record), r.db.qt(r.db.tables.Relation), r.db.qt(r.db.tables.Place),
	), date.Time(), placeName)
	if err != nil {
		return nil, storeErr("record.get_by_date_name", err)
	}
	if err := r.fillRelations(ctx, recs); err != nil {
		return nil, storeErr("record.get_by_date_name", err)
	}
	return recs, nil
}

func (r *recordRepo) Save(ctx context.Context, rec *domain.AstroRecord, relatedIDs *[]int) (*domain.AstroRecord, error) {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return nil, storeErr("record.save", err)
	}
	defer tx.Rollback(ctx)

	if rec.ID == 0 {
		err = tx.QueryRow(ctx, fmt.Sprintf(
			`INSERT INTO %s (date, latitude, longitude, sunrise, sunset)
			 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
			r.db.qt(r.db.tables.Record),
		), rec.Date.Time(), rec.Latitude, rec.Longitude, rec.Sunrise, rec.Sunset).Scan(&rec.ID)
		if err != nil {
			return nil, storeErr("record.save", err)
		}
	} else {
		tag, err := tx.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET date=$1, latitude=$2, longitude=$3, sunrise=$4, sunset=$5 WHERE id=$6`,
			r.db.qt(r.db.tables.Record),
		), rec.Date.Time(), rec.Latitude, rec.Longitude, rec.Sunrise, rec.Sunset, rec.ID)
		if err != nil {
			return nil, storeErr("record.save", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, domain.ErrNotFound
		}
	}

	if relatedIDs != nil {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE record_id=$1`, r.db.qt(r.db.tables.Relation),
		), rec.ID); err != nil {
			return nil, storeErr("record.save", err)
		}
		if len(*relatedIDs) > 0 {
			if _, err := tx.Exec(ctx, fmt.Sprintf(
				`INSERT INTO %s (place_id, record_id)
				 SELECT id, $1 FROM %s WHERE id = ANY($2)
				 ON CONFLICT DO NOTHING`,
				r.db.qt(r.db.tables.Relation), r.db.qt(r.db.tables.Place),
			), rec.ID, *relatedIDs); err != nil {
				return nil, storeErr("record.save", err)
			}
		}
	}

	rows, err := tx.Query(ctx, fmt.Sprintf(
		`SELECT place_id FROM %s WHERE record_id=$1 ORDER BY place_id`,
		r.db.qt(r.db.tables.Relation),
	), rec.ID)
	if err != nil {
		return nil, storeErr("record.save", err)
	}
	placeIDs, err := scanInts(rows)
	if err != nil {
		return nil, storeErr("record.save", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("record.save", err)
	}

	saved := *rec
	saved.PlaceIDs = placeIDs
	return &saved, nil
}

func (r *recordRepo) DeleteByID(ctx context.Context, id int) error {
	tag, err := r.db.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id=$1`, r.db.qt(r.db.tables.Record),
	), id)
	if err != nil {
		return storeErr("record.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *recordRepo) ExistsByID(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE id=$1)`, r.db.qt(r.db.tables.Record),
	), id).Scan(&exists)
	if err != nil {
		return false, storeErr("record.exists", err)
	}
	return exists, nil
}

func (r *recordRepo) relatedIDs(ctx context.Context, recordID int) ([]int, error) {
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(
		`SELECT place_id FROM %s WHERE record_id=$1 ORDER BY place_id`,
		r.db.qt(r.db.tables.Relation),
	), recordID)
	if err != nil {
		return nil, err
	}
	return scanInts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.AstroRecord, error) {
	var (
		rec             domain.AstroRecord
		date            time.Time
		sunrise, sunset *time.Time
	)
	if err := row.Scan(&rec.ID, &date, &rec.Latitude, &rec.Longitude, &sunrise, &sunset); err != nil {
		return nil, err
	}
	rec.Date = domain.DateOf(date)
	if sunrise != nil {
		rec.Sunrise = *sunrise
	}
	if sunset != nil {
		rec.Sunset = *sunset
	}
	rec.PlaceIDs = []int{}
	return &rec, nil
}

func (r *recordRepo) scanRecords(ctx context.Context, sql string, args ...any) ([]domain.AstroRecord, error) {
	rows, err := r.db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []domain.AstroRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func (r *recordRepo) fillRelations(ctx context.Context, recs []domain.AstroRecord) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]int, len(recs))
	index := make(map[int]int, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
		index[rec.ID] = i
	}

	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(
		`SELECT record_id, place_id FROM %s WHERE record_id = ANY($1) ORDER BY place_id`,
		r.db.qt(r.db.tables.Relation),
	), ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var recordID, placeID int
		if err := rows.Scan(&recordID, &placeID); err != nil {
			return err
		}
		i := index[recordID]
		recs[i].PlaceIDs = append(recs[i].PlaceIDs, placeID)
	}
	return rows.Err()
}
