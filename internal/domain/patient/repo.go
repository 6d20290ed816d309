package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/pkg/pagination"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool, actorID uuid.UUID) error
	// SoftDelete marks the patient only. Dependent episodes and visits are
	// deliberately untouched; their cleanup is the caller's concern.
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, includeArchived bool, sort pagination.Sort, limit, offset int) ([]*Patient, int, error)
}

type MappingRepository interface {
	Create(ctx context.Context, m *OrgMapping) error
	MappingExists(ctx context.Context, orgID, patientID uuid.UUID) (bool, error)
	SoftDeleteByPatient(ctx context.Context, orgID, patientID, actorID uuid.UUID) (int, error)
}
