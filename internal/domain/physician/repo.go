package physician

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Physician) error
	GetByID(ctx context.Context, id uuid.UUID) (*Physician, error)
	Update(ctx context.Context, p *Physician) error
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Physician, int, error)
	// ExistsInOrg backs physician validation during assignment updates.
	ExistsInOrg(ctx context.Context, orgID, physicianID uuid.UUID) (bool, error)
}
