package physician

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/user"
)

type resolver interface {
	ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*user.OrganizationAccess, error)
}

type Service struct {
	physicians Repository
	resolver   resolver
}

func NewService(physicians Repository, resolver resolver) *Service {
	return &Service{physicians: physicians, resolver: resolver}
}

type CreateInput struct {
	FirstName string
	LastName  string
	NPI       *string
	Phone     *string
	Fax       *string
}

func (s *Service) CreatePhysician(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Physician, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.InvalidInputf("first_name and last_name are required")
	}

	p := &Physician{
		ID:             uuid.New(),
		OrganizationID: grant.OrganizationID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		NPI:            in.NPI,
		Phone:          in.Phone,
		Fax:            in.Fax,
		Stamp:          audit.NewStamp(actorID),
	}
	if err := s.physicians.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create physician: %w", err)
	}
	return p, nil
}

func (s *Service) GetPhysician(ctx context.Context, actorID, physicianID uuid.UUID) (*Physician, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.requireInOrg(ctx, grant.OrganizationID, physicianID); err != nil {
		return nil, err
	}
	p, err := s.physicians.GetByID(ctx, physicianID)
	if err != nil {
		return nil, apperr.NotFound("PHYSICIAN_NOT_FOUND", err)
	}
	return p, nil
}

func (s *Service) ListPhysicians(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Physician, int, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.physicians.ListByOrganization(ctx, grant.OrganizationID, limit, offset)
}

func (s *Service) UpdatePhysician(ctx context.Context, actorID uuid.UUID, p *Physician) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.requireInOrg(ctx, grant.OrganizationID, p.ID); err != nil {
		return err
	}
	if p.FirstName == "" || p.LastName == "" {
		return apperr.InvalidInputf("first_name and last_name are required")
	}
	p.Touch(actorID)
	if err := s.physicians.Update(ctx, p); err != nil {
		return fmt.Errorf("update physician: %w", err)
	}
	return nil
}

func (s *Service) DeletePhysician(ctx context.Context, actorID, physicianID uuid.UUID) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.requireInOrg(ctx, grant.OrganizationID, physicianID); err != nil {
		return err
	}
	return s.physicians.SoftDelete(ctx, physicianID, actorID)
}

func (s *Service) requireInOrg(ctx context.Context, orgID, physicianID uuid.UUID) error {
	ok, err := s.physicians.ExistsInOrg(ctx, orgID, physicianID)
	if err != nil {
		return fmt.Errorf("check physician: %w", err)
	}
	if !ok {
		return apperr.AccessDeniedf("physician %s is not in organization %s", physicianID, orgID)
	}
	return nil
}
