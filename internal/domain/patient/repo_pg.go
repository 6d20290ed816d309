package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/pkg/pagination"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, first_name, last_name, birth_date, gender, address, archived,
	created_at, updated_at, created_by, updated_by, deleted_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender,
		&p.Address, &p.Archived,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy, &p.DeletedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, first_name, last_name, birth_date, gender, address, archived,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.FirstName, p.LastName, p.BirthDate, p.Gender, p.Address, p.Archived,
		p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *patientRepoPG) GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient
		SET first_name=$2, last_name=$3, birth_date=$4, gender=$5, address=$6,
			updated_at=NOW(), updated_by=$7
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.FirstName, p.LastName, p.BirthDate, p.Gender, p.Address, p.UpdatedBy)
	return err
}

func (r *patientRepoPG) SetArchived(ctx context.Context, id uuid.UUID, archived bool, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient
		SET archived=$2, updated_at=NOW(), updated_by=$3
		WHERE id = $1 AND deleted_at IS NULL`, id, archived, actorID)
	return err
}

func (r *patientRepoPG) SoftDelete(ctx context.Context, id, actorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$2
		WHERE id = $1 AND deleted_at IS NULL`, id, actorID)
	return err
}

func (r *patientRepoPG) ListByOrganization(ctx context.Context, orgID uuid.UUID, includeArchived bool, sort pagination.Sort, limit, offset int) ([]*Patient, int, error) {
	where := `m.organization_id = $1 AND m.deleted_at IS NULL AND p.deleted_at IS NULL`
	if !includeArchived {
		where += ` AND NOT p.archived`
	}
	orderBy := `p.last_name ASC, p.first_name ASC`
	if sort.Column != "" {
		orderBy = sort.OrderBy()
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM patient p
		JOIN organization_patients_mapping m ON m.patient_id = p.id
		WHERE `+where, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.first_name, p.last_name, p.birth_date, p.gender, p.address, p.archived,
			p.created_at, p.updated_at, p.created_by, p.updated_by, p.deleted_at
		FROM patient p
		JOIN organization_patients_mapping m ON m.patient_id = p.id
		WHERE `+where+`
		ORDER BY `+orderBy+`
		LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

type mappingRepoPG struct{ pool *pgxpool.Pool }

func NewMappingRepoPG(pool *pgxpool.Pool) MappingRepository {
	return &mappingRepoPG{pool: pool}
}

func (r *mappingRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *mappingRepoPG) Create(ctx context.Context, m *OrgMapping) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO organization_patients_mapping (id, organization_id, patient_id,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.OrganizationID, m.PatientID,
		m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy)
	return err
}

func (r *mappingRepoPG) MappingExists(ctx context.Context, orgID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM organization_patients_mapping
			WHERE organization_id = $1 AND patient_id = $2 AND deleted_at IS NULL
		)`, orgID, patientID).Scan(&exists)
	return exists, err
}

func (r *mappingRepoPG) SoftDeleteByPatient(ctx context.Context, orgID, patientID, actorID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE organization_patients_mapping
		SET deleted_at=NOW(), updated_at=NOW(), updated_by=$3
		WHERE organization_id = $1 AND patient_id = $2 AND deleted_at IS NULL`,
		orgID, patientID, actorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
