package report

import (
	"context"

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

const reportCols = `id, episode_id, user_id, title, body,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rp Report
	err := row.Scan(&rp.ID, &rp.EpisodeID, &rp.UserID, &rp.Title, &rp.Body,
		&rp.CreatedAt, &rp.UpdatedAt, &rp.CreatedBy, &rp.UpdatedBy, &rp.DeletedAt)
	return &rp, err
}

func (r *repoPG) Create(ctx context.Context, rp *Report) error {
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO report (id, episode_id, user_id, title, body,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rp.ID, rp.EpisodeID, rp.UserID, rp.Title, rp.Body,
		rp.CreatedAt, rp.UpdatedAt, rp.CreatedBy, rp.UpdatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM report WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) Update(ctx context.Context, rp *Report) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE report
		SET title=$2, body=$3, updated_at=NOW(), updated_by=$4
		WHERE id = $1 AND deleted_at IS NULL`,
		rp.ID, rp.Title, rp.Body, rp.UpdatedBy)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE report
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, id, actorID)
	return err
}

func (r *repoPG) ListByEpisode(ctx context.Context, episodeID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM report
		WHERE episode_id = $1 AND deleted_at IS NULL`, episodeID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM report
		WHERE episode_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, episodeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Report
	for rows.Next() {
		rp, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rp)
	}
	return items, total, rows.Err()
}

func (r *repoPG) SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE report
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE user_id = $1 AND deleted_at IS NULL`, userID, actorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *itemRepoPG) Create(ctx context.Context, it *Item) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO report_item (id, report_id, visit_id, note,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		it.ID, it.ReportID, it.VisitID, it.Note,
		it.CreatedAt, it.UpdatedAt, it.CreatedBy, it.UpdatedBy)
	return err
}

func (r *itemRepoPG) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, report_id, visit_id, note,
			created_at, updated_at, created_by, updated_by, deleted_at
		FROM report_item
		WHERE report_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ReportID, &it.VisitID, &it.Note,
			&it.CreatedAt, &it.UpdatedAt, &it.CreatedBy, &it.UpdatedBy, &it.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *itemRepoPG) SoftDelete(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE report_item
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, id, actorID)
	return err
}
