package user

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

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const profileCols = `id, first_name, last_name, email, phone,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy, &p.DeletedAt)
	return &p, err
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO user_profile (id, first_name, last_name, email, phone,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone,
		p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy)
	return err
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM user_profile WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *profileRepoPG) GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM user_profile WHERE id = $1`, id))
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_profile
		SET first_name=$2, last_name=$3, email=$4, phone=$5,
			updated_at=NOW(), updated_by=$6
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.UpdatedBy)
	return err
}

func (r *profileRepoPG) SoftDelete(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_profile
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, id, actorID)
	return err
}

func (r *profileRepoPG) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM user_profile p
		JOIN user_organization_access a ON a.user_id = p.id
		WHERE a.organization_id = $1 AND a.deleted_at IS NULL AND p.deleted_at IS NULL`,
		orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.first_name, p.last_name, p.email, p.phone,
			p.created_at, p.updated_at, p.created_by, p.updated_by, p.deleted_at
		FROM user_profile p
		JOIN user_organization_access a ON a.user_id = p.id
		WHERE a.organization_id = $1 AND a.deleted_at IS NULL AND p.deleted_at IS NULL
		ORDER BY p.last_name, p.first_name
		LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

type orgAccessRepoPG struct{ pool *pgxpool.Pool }

func NewOrgAccessRepoPG(pool *pgxpool.Pool) OrgAccessRepository {
	return &orgAccessRepoPG{pool: pool}
}

func (r *orgAccessRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const orgAccessCols = `id, organization_id, user_id, role, is_admin,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanOrgAccess(row pgx.Row) (*OrganizationAccess, error) {
	var a OrganizationAccess
	err := row.Scan(&a.ID, &a.OrganizationID, &a.UserID, &a.Role, &a.IsAdmin,
		&a.CreatedAt, &a.UpdatedAt, &a.CreatedBy, &a.UpdatedBy, &a.DeletedAt)
	return &a, err
}

func (r *orgAccessRepoPG) Create(ctx context.Context, a *OrganizationAccess) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO user_organization_access (id, organization_id, user_id, role, is_admin,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.OrganizationID, a.UserID, a.Role, a.IsAdmin,
		a.CreatedAt, a.UpdatedAt, a.CreatedBy, a.UpdatedBy)
	return err
}

func (r *orgAccessRepoPG) AdminGrantsByUser(ctx context.Context, userID uuid.UUID) ([]*OrganizationAccess, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+orgAccessCols+` FROM user_organization_access
		WHERE user_id = $1 AND is_admin AND deleted_at IS NULL`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*OrganizationAccess
	for rows.Next() {
		a, err := scanOrgAccess(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *orgAccessRepoPG) CountActiveMembers(ctx context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM user_organization_access
		WHERE organization_id = $1 AND user_id = ANY($2) AND deleted_at IS NULL`,
		orgID, userIDs).Scan(&count)
	return count, err
}

func (r *orgAccessRepoPG) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_organization_access
			WHERE organization_id = $1 AND user_id = $2 AND deleted_at IS NULL
		)`, orgID, userID).Scan(&exists)
	return exists, err
}

func (r *orgAccessRepoPG) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*OrganizationAccess, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+orgAccessCols+` FROM user_organization_access
		WHERE organization_id = $1 AND deleted_at IS NULL`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*OrganizationAccess
	for rows.Next() {
		a, err := scanOrgAccess(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *orgAccessRepoPG) SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_organization_access
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE user_id = $1 AND deleted_at IS NULL`, userID, actorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
