package episode

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

type episodeRepoPG struct{ pool *pgxpool.Pool }

func NewEpisodeRepoPG(pool *pgxpool.Pool) EpisodeRepository {
	return &episodeRepoPG{pool: pool}
}

func (r *episodeRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const episodeCols = `id, patient_id, physician_id, clinician_name, start_date, end_date, is_active,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanEpisode(row pgx.Row) (*Episode, error) {
	var e Episode
	err := row.Scan(&e.ID, &e.PatientID, &e.PhysicianID, &e.ClinicianName,
		&e.StartDate, &e.EndDate, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy, &e.DeletedAt)
	return &e, err
}

func (r *episodeRepoPG) Create(ctx context.Context, e *Episode) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO episode (id, patient_id, physician_id, clinician_name, start_date, end_date, is_active,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.PatientID, e.PhysicianID, e.ClinicianName, e.StartDate, e.EndDate, e.IsActive,
		e.CreatedAt, e.UpdatedAt, e.CreatedBy, e.UpdatedBy)
	return err
}

func (r *episodeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Episode, error) {
	return scanEpisode(r.conn(ctx).QueryRow(ctx,
		`SELECT `+episodeCols+` FROM episode WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *episodeRepoPG) ActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Episode, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+episodeCols+` FROM episode
		WHERE patient_id = $1 AND is_active AND deleted_at IS NULL`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *episodeRepoPG) AttachPhysician(ctx context.Context, episodeID, physicianID, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE episode
		SET physician_id=$2, updated_at=NOW(), updated_by=$3
		WHERE id = $1 AND deleted_at IS NULL`, episodeID, physicianID, actorID)
	return err
}

func (r *episodeRepoPG) Close(ctx context.Context, episodeID, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE episode
		SET is_active=FALSE, end_date=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, episodeID, actorID)
	return err
}

type accessRepoPG struct{ pool *pgxpool.Pool }

func NewAccessRepoPG(pool *pgxpool.Pool) AccessRepository {
	return &accessRepoPG{pool: pool}
}

func (r *accessRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const accessCols = `id, episode_id, user_id, organization_id, role,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanAccess(row pgx.Row) (*Access, error) {
	var a Access
	err := row.Scan(&a.ID, &a.EpisodeID, &a.UserID, &a.OrganizationID, &a.Role,
		&a.CreatedAt, &a.UpdatedAt, &a.CreatedBy, &a.UpdatedBy, &a.DeletedAt)
	return &a, err
}

func (r *accessRepoPG) Create(ctx context.Context, a *Access) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO user_episode_access (id, episode_id, user_id, organization_id, role,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.EpisodeID, a.UserID, a.OrganizationID, a.Role,
		a.CreatedAt, a.UpdatedAt, a.CreatedBy, a.UpdatedBy)
	return err
}

func (r *accessRepoPG) list(ctx context.Context, query string, orgID, episodeID uuid.UUID) ([]*Access, error) {
	rows, err := r.conn(ctx).Query(ctx, query, orgID, episodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Access
	for rows.Next() {
		a, err := scanAccess(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *accessRepoPG) ListByOrgEpisode(ctx context.Context, orgID, episodeID uuid.UUID) ([]*Access, error) {
	return r.list(ctx, `
		SELECT `+accessCols+` FROM user_episode_access
		WHERE organization_id = $1 AND episode_id = $2 AND deleted_at IS NULL`,
		orgID, episodeID)
}

func (r *accessRepoPG) ListByOrgEpisodeIncludingDeleted(ctx context.Context, orgID, episodeID uuid.UUID) ([]*Access, error) {
	return r.list(ctx, `
		SELECT `+accessCols+` FROM user_episode_access
		WHERE organization_id = $1 AND episode_id = $2`,
		orgID, episodeID)
}

func (r *accessRepoPG) Resurrect(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_episode_access
		SET deleted_at=NULL, updated_at=NOW(), updated_by=$2
		WHERE id = $1`, id, actorID)
	return err
}

func (r *accessRepoPG) SoftDelete(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_episode_access
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, id, actorID)
	return err
}

func (r *accessRepoPG) SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_episode_access
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE user_id = $1 AND deleted_at IS NULL`, userID, actorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *accessRepoPG) HasActiveAccess(ctx context.Context, orgID, episodeID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_episode_access
			WHERE organization_id = $1 AND episode_id = $2 AND user_id = $3 AND deleted_at IS NULL
		)`, orgID, episodeID, userID).Scan(&exists)
	return exists, err
}
