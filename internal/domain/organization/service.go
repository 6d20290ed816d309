package organization

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/platform/db"
)

type resolver interface {
	ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*user.OrganizationAccess, error)
}

// GrantCreator writes the founder's admin membership when an organization is
// created. user.OrgAccessRepository implements it.
type GrantCreator interface {
	Create(ctx context.Context, a *user.OrganizationAccess) error
}

type ServiceDeps struct {
	Orgs     Repository
	Grants   GrantCreator
	Resolver resolver
	Begin    db.BeginFunc
}

type Service struct {
	orgs     Repository
	grants   GrantCreator
	resolver resolver
	begin    db.BeginFunc
}

func NewService(d ServiceDeps) *Service {
	if d.Begin == nil {
		d.Begin = db.Begin
	}
	return &Service{orgs: d.Orgs, grants: d.Grants, resolver: d.Resolver, begin: d.Begin}
}

type CreateInput struct {
	Name    string
	Address *string
	Phone   *string
}

const founderRole = "admin"

// CreateOrganization creates the organization and makes the creator its
// admin, in one transaction. This is the only path that does not require an
// existing admin grant.
func (s *Service) CreateOrganization(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Organization, error) {
	if in.Name == "" {
		return nil, apperr.InvalidInputf("name is required")
	}

	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o := &Organization{
		ID:      uuid.New(),
		Name:    in.Name,
		Address: in.Address,
		Phone:   in.Phone,
		Stamp:   audit.NewStamp(actorID),
	}
	if err := s.orgs.Create(txCtx, o); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	grant := &user.OrganizationAccess{
		ID:             uuid.New(),
		OrganizationID: o.ID,
		UserID:         actorID,
		Role:           founderRole,
		IsAdmin:        true,
		Stamp:          audit.NewStamp(actorID),
	}
	if err := s.grants.Create(txCtx, grant); err != nil {
		return nil, fmt.Errorf("create admin grant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// GetOrganization returns the acting admin's own organization.
func (s *Service) GetOrganization(ctx context.Context, actorID uuid.UUID) (*Organization, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	o, err := s.orgs.GetByID(ctx, grant.OrganizationID)
	if err != nil {
		return nil, apperr.NotFound("ORGANIZATION_NOT_FOUND", err)
	}
	return o, nil
}

// ListOrganizations returns every organization the actor is a member of.
func (s *Service) ListOrganizations(ctx context.Context, actorID uuid.UUID) ([]*Organization, error) {
	return s.orgs.ListByUser(ctx, actorID)
}

// UpdateOrganization updates the acting admin's own organization.
func (s *Service) UpdateOrganization(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Organization, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, apperr.InvalidInputf("name is required")
	}

	o, err := s.orgs.GetByID(ctx, grant.OrganizationID)
	if err != nil {
		return nil, apperr.NotFound("ORGANIZATION_NOT_FOUND", err)
	}
	o.Name = in.Name
	o.Address = in.Address
	o.Phone = in.Phone
	o.Touch(actorID)

	if err := s.orgs.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return o, nil
}
