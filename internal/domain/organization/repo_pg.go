package organization

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

const orgCols = `id, name, address, phone,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.Address, &o.Phone,
		&o.CreatedAt, &o.UpdatedAt, &o.CreatedBy, &o.UpdatedBy, &o.DeletedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO organization (id, name, address, phone,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.Name, o.Address, o.Phone,
		o.CreatedAt, o.UpdatedAt, o.CreatedBy, o.UpdatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return scanOrg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+orgCols+` FROM organization WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) Update(ctx context.Context, o *Organization) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE organization
		SET name=$2, address=$3, phone=$4, updated_at=NOW(), updated_by=$5
		WHERE id = $1 AND deleted_at IS NULL`,
		o.ID, o.Name, o.Address, o.Phone, o.UpdatedBy)
	return err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Organization, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT o.id, o.name, o.address, o.phone,
			o.created_at, o.updated_at, o.created_by, o.updated_by, o.deleted_at
		FROM organization o
		JOIN user_organization_access a ON a.organization_id = o.id
		WHERE a.user_id = $1 AND a.deleted_at IS NULL AND o.deleted_at IS NULL
		ORDER BY o.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
