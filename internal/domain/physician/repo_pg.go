package physician

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

const physicianCols = `id, organization_id, first_name, last_name, npi, phone, fax,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanPhysician(row pgx.Row) (*Physician, error) {
	var p Physician
	err := row.Scan(&p.ID, &p.OrganizationID, &p.FirstName, &p.LastName, &p.NPI, &p.Phone, &p.Fax,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy, &p.DeletedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Physician) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO physician (id, organization_id, first_name, last_name, npi, phone, fax,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.OrganizationID, p.FirstName, p.LastName, p.NPI, p.Phone, p.Fax,
		p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Physician, error) {
	return scanPhysician(r.conn(ctx).QueryRow(ctx,
		`SELECT `+physicianCols+` FROM physician WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Physician) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE physician
		SET first_name=$2, last_name=$3, npi=$4, phone=$5, fax=$6,
			updated_at=NOW(), updated_by=$7
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.FirstName, p.LastName, p.NPI, p.Phone, p.Fax, p.UpdatedBy)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE physician
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, id, actorID)
	return err
}

func (r *repoPG) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Physician, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM physician
		WHERE organization_id = $1 AND deleted_at IS NULL`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+physicianCols+` FROM physician
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY last_name, first_name
		LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Physician
	for rows.Next() {
		p, err := scanPhysician(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ExistsInOrg(ctx context.Context, orgID, physicianID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM physician
			WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		)`, physicianID, orgID).Scan(&exists)
	return exists, err
}
