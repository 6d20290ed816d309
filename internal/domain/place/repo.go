package place

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Place) error
	GetByID(ctx context.Context, id uuid.UUID) (*Place, error)
	Update(ctx context.Context, p *Place) error
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Place, int, error)
	ExistsInOrg(ctx context.Context, orgID, placeID uuid.UUID) (bool, error)
}
