package place

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/platform/notify"
)

type resolver interface {
	ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*user.OrganizationAccess, error)
}

// Service manages places. Every successful mutation is announced on the
// organization channel so clients keep their location data current.
type Service struct {
	places    Repository
	resolver  resolver
	publisher notify.Publisher
}

func NewService(places Repository, resolver resolver, publisher notify.Publisher) *Service {
	return &Service{places: places, resolver: resolver, publisher: publisher}
}

type CreateInput struct {
	Name      string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

func (s *Service) CreatePlace(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Place, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, apperr.InvalidInputf("name is required")
	}

	p := &Place{
		ID:             uuid.New(),
		OrganizationID: grant.OrganizationID,
		Name:           in.Name,
		Address:        in.Address,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		Stamp:          audit.NewStamp(actorID),
	}
	if err := s.places.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}

	s.publisher.Publish(ctx, notify.OrgChannel(grant.OrganizationID), notify.PlaceEvent(notify.ActionCreatePlace, p.ID))
	return p, nil
}

func (s *Service) GetPlace(ctx context.Context, actorID, placeID uuid.UUID) (*Place, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.requireInOrg(ctx, grant.OrganizationID, placeID); err != nil {
		return nil, err
	}
	p, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, apperr.NotFound("PLACE_NOT_FOUND", err)
	}
	return p, nil
}

func (s *Service) ListPlaces(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Place, int, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.places.ListByOrganization(ctx, grant.OrganizationID, limit, offset)
}

func (s *Service) UpdatePlace(ctx context.Context, actorID uuid.UUID, p *Place) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.requireInOrg(ctx, grant.OrganizationID, p.ID); err != nil {
		return err
	}
	if p.Name == "" {
		return apperr.InvalidInputf("name is required")
	}

	p.Touch(actorID)
	if err := s.places.Update(ctx, p); err != nil {
		return fmt.Errorf("update place: %w", err)
	}

	s.publisher.Publish(ctx, notify.OrgChannel(grant.OrganizationID), notify.PlaceEvent(notify.ActionUpdatePlace, p.ID))
	return nil
}

func (s *Service) DeletePlace(ctx context.Context, actorID, placeID uuid.UUID) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.requireInOrg(ctx, grant.OrganizationID, placeID); err != nil {
		return err
	}
	if err := s.places.SoftDelete(ctx, placeID, actorID); err != nil {
		return fmt.Errorf("soft delete place: %w", err)
	}

	s.publisher.Publish(ctx, notify.OrgChannel(grant.OrganizationID), notify.PlaceEvent(notify.ActionDeletePlace, placeID))
	return nil
}

func (s *Service) requireInOrg(ctx context.Context, orgID, placeID uuid.UUID) error {
	ok, err := s.places.ExistsInOrg(ctx, orgID, placeID)
	if err != nil {
		return fmt.Errorf("check place: %w", err)
	}
	if !ok {
		return apperr.AccessDeniedf("place %s is not in organization %s", placeID, orgID)
	}
	return nil
}
