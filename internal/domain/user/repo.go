package user

import (
	"context"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	// GetByIDIncludingDeleted also returns logically deleted profiles, for
	// administrative and reconciliation use.
	GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Profile, int, error)
}

type OrgAccessRepository interface {
	Create(ctx context.Context, a *OrganizationAccess) error
	// AdminGrantsByUser returns the user's active admin accesses. The access
	// resolver requires exactly one.
	AdminGrantsByUser(ctx context.Context, userID uuid.UUID) ([]*OrganizationAccess, error)
	// CountActiveMembers counts how many of userIDs are active members of the
	// organization, for count-based set validation.
	CountActiveMembers(ctx context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (int, error)
	IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*OrganizationAccess, error)
	// SoftDeleteByUser marks all the user's active accesses deleted and
	// returns how many rows changed.
	SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error)
}
