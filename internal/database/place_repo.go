package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkarev/suntrack/internal/domain"
)

type placeRepo struct {
	db *DB
}

func (r *placeRepo) GetByID(ctx context.Context, id int) (*domain.Place, error) {
	var (
		p       domain.Place
		country *string
	)
	err := r.db.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT id, name, country FROM %s WHERE id=$1`, r.db.qt(r.db.tables.Place),
	), id).Scan(&p.ID, &p.Name, &country)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("place.get", err)
	}
	if country != nil {
		p.Country = *country
	}

	p.RecordIDs, err = r.relatedIDs(ctx, id)
	if err != nil {
		return nil, storeErr("place.get", err)
	}
	return &p, nil
}

func (r *placeRepo) GetAll(ctx context.Context) ([]domain.Place, error) {
	places, err := r.scanPlaces(ctx, fmt.Sprintf(
		`SELECT id, name, country FROM %s ORDER BY id`, r.db.qt(r.db.tables.Place),
	))
	if err != nil {
		return nil, storeErr("place.get_all", err)
	}
	if err := r.fillRelations(ctx, places); err != nil {
		return nil, storeErr("place.get_all", err)
	}
	return places, nil
}

func (r *placeRepo) GetAllByIDs(ctx context.Context, ids []int) ([]domain.Place, error) {
	if len(ids) == 0 {
		return []domain.Place{}, nil
	}
	places, err := r.scanPlaces(ctx, fmt.Sprintf(
		`SELECT id, name, country FROM %s WHERE id = ANY($1) ORDER BY id`, r.db.qt(r.db.tables.Place),
	), ids)
	if err != nil {
		return nil, storeErr("place.get_by_ids", err)
	}
	if err := r.fillRelations(ctx, places); err != nil {
		return nil, storeErr("place.get_by_ids", err)
	}
	return places, nil
}

func (r *placeRepo) Save(ctx context.Context, p *domain.Place, relatedIDs *[]int) (*domain.Place, error) {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return nil, storeErr("place.save", err)
	}
	defer tx.Rollback(ctx)

	if p.ID == 0 {
		err = tx.QueryRow(ctx, fmt.Sprintf(
			`INSERT INTO %s (name, country) VALUES ($1, NULLIF($2,'')) RETURNING id`,
			r.db.qt(r.db.tables.Place),
		), p.Name, p.Country).Scan(&p.ID)
		if err != nil {
			return nil, storeErr("place.save", err)
		}
	} else {
		tag, err := tx.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET name=$1, country=NULLIF($2,'') WHERE id=$3`,
			r.db.qt(r.db.tables.Place),
		), p.Name, p.Country, p.ID)
		if err != nil {
			return nil, storeErr("place.save", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, domain.ErrNotFound
		}
	}

	if relatedIDs != nil {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE place_id=$1`, r.db.qt(r.db.tables.Relation),
		), p.ID); err != nil {
			return nil, storeErr("place.save", err)
		}
		if len(*relatedIDs) > 0 {
			// Resolving through the record table drops ids with no existing
			// counterpart instead of failing the save.
			if _, err := tx.Exec(ctx, fmt.Sprintf(
				`INSERT INTO %s (place_id, record_id)
				 SELECT $1, id FROM %s WHERE id = ANY($2)
				 ON CONFLICT DO NOTHING`,
				r.db.qt(r.db.tables.Relation), r.db.qt(r.db.tables.Record),
			), p.ID, *relatedIDs); err != nil {
				return nil, storeErr("place.save", err)
			}
		}
	}

	rows, err := tx.Query(ctx, fmt.Sprintf(
		`SELECT record_id FROM %s WHERE place_id=$1 ORDER BY record_id`,
		r.db.qt(r.db.tables.Relation),
	), p.ID)
	if err != nil {
		return nil, storeErr("place.save", err)
	}
	recordIDs, err := scanInts(rows)
	if err != nil {
		return nil, storeErr("place.save", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("place.save", err)
	}

	saved := *p
	saved.RecordIDs = recordIDs
	return &saved, nil
}

func (r *placeRepo) DeleteByID(ctx context.Context, id int) error {
	tag, err := r.db.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id=$1`, r.db.qt(r.db.tables.Place),
	), id)
	if err != nil {
		return storeErr("place.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *placeRepo) ExistsByID(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE id=$1)`, r.db.qt(r.db.tables.Place),
	), id).Scan(&exists)
	if err != nil {
		return false, storeErr("place.exists", err)
	}
	return exists, nil
}

func (r *placeRepo) relatedIDs(ctx context.Context, placeID int) ([]int, error) {
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(
		`SELECT record_id FROM %s WHERE place_id=$1 ORDER BY record_id`,
		r.db.qt(r.db.tables.Relation),
	), placeID)
	if err != nil {
		return nil, err
	}
	return scanInts(rows)
}

func (r *placeRepo) scanPlaces(ctx context.Context, sql string, args ...any) ([]domain.Place, error) {
	rows, err := r.db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		var (
			p       domain.Place
			country *string
		)
		if err := rows.Scan(&p.ID, &p.Name, &country); err != nil {
			return nil, err
		}
		if country != nil {
			p.Country = *country
		}
		p.RecordIDs = []int{}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (r *placeRepo) fillRelations(ctx context.Context, places []domain.Place) error {
	if len(places) == 0 {
		return nil
	}
	ids := make([]int, len(places))
	index := make(map[int]int, len(places))
	for i, p := range places {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(
		`SELECT place_id, record_id FROM %s WHERE place_id = ANY($1) ORDER BY record_id`,
		r.db.qt(r.db.tables.Relation),
	), ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var placeID, recordID int
		if err := rows.Scan(&placeID, &recordID); err != nil {
			return err
		}
		i := index[placeID]
		places[i].RecordIDs = append(places[i].RecordIDs, recordID)
	}
	return rows.Err()
}

func scanInts(rows pgx.Rows) ([]int, error) {
	defer rows.Close()
	out := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
