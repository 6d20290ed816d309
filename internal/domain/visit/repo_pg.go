package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const visitCols = `id, episode_id, user_id, place_id, midnight_epoch, start_time, end_time,
	completed, notes, created_at, updated_at, created_by, updated_by, deleted_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.EpisodeID, &v.UserID, &v.PlaceID, &v.MidnightEpoch,
		&v.StartTime, &v.EndTime, &v.Completed, &v.Notes,
		&v.CreatedAt, &v.UpdatedAt, &v.CreatedBy, &v.UpdatedBy, &v.DeletedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (id, episode_id, user_id, place_id, midnight_epoch, start_time, end_time,
			completed, notes, created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		v.ID, v.EpisodeID, v.UserID, v.PlaceID, v.MidnightEpoch, v.StartTime, v.EndTime,
		v.Completed, v.Notes, v.CreatedAt, v.UpdatedAt, v.CreatedBy, v.UpdatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visit WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) Complete(ctx context.Context, id uuid.UUID, start, end *time.Time, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit
		SET completed=TRUE, start_time=COALESCE($2, start_time), end_time=COALESCE($3, end_time),
			updated_at=NOW(), updated_by=$4
		WHERE id = $1 AND deleted_at IS NULL`, id, start, end, actorID)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, id, actorID)
	return err
}

func (r *repoPG) ListByEpisode(ctx context.Context, episodeID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM visit
		WHERE episode_id = $1 AND deleted_at IS NULL`, episodeID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitCols+` FROM visit
		WHERE episode_id = $1 AND deleted_at IS NULL
		ORDER BY midnight_epoch DESC
		LIMIT $2 OFFSET $3`, episodeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, fromEpoch, toEpoch int64) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitCols+` FROM visit
		WHERE user_id = $1 AND midnight_epoch BETWEEN $2 AND $3 AND deleted_at IS NULL
		ORDER BY midnight_epoch`, userID, fromEpoch, toEpoch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteFutureIncomplete(ctx context.Context, episodeID, userID uuid.UUID, cutoff time.Time) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM visit
		WHERE episode_id = $1 AND user_id = $2 AND NOT completed AND midnight_epoch >= $3`,
		episodeID, userID, MidnightEpoch(cutoff))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE user_id = $1 AND deleted_at IS NULL`, userID, actorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type milesRepoPG struct{ pool *pgxpool.Pool }

func NewMilesRepoPG(pool *pgxpool.Pool) MilesRepository {
	return &milesRepoPG{pool: pool}
}

func (r *milesRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *milesRepoPG) Upsert(ctx context.Context, m *Miles) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit_miles (id, visit_id, miles, created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (visit_id) DO UPDATE
		SET miles = EXCLUDED.miles, updated_at = NOW(), updated_by = EXCLUDED.updated_by`,
		m.ID, m.VisitID, m.Miles, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy)
	return err
}

func (r *milesRepoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Miles, error) {
	var m Miles
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, miles, created_at, updated_at, created_by, updated_by, deleted_at
		FROM visit_miles WHERE visit_id = $1 AND deleted_at IS NULL`, visitID).
		Scan(&m.ID, &m.VisitID, &m.Miles,
			&m.CreatedAt, &m.UpdatedAt, &m.CreatedBy, &m.UpdatedBy, &m.DeletedAt)
	return &m, err
}
