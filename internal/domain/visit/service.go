package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/user"
)

type resolver interface {
	ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*user.OrganizationAccess, error)
}

// AccessChecker reports whether a user holds live access to an episode under
// the organization. Visits may only be scheduled for assigned clinicians.
type AccessChecker interface {
	HasActiveAccess(ctx context.Context, orgID, episodeID, userID uuid.UUID) (bool, error)
}

// PlaceChecker verifies an optional visit location belongs to the org.
type PlaceChecker interface {
	ExistsInOrg(ctx context.Context, orgID, placeID uuid.UUID) (bool, error)
}

type ServiceDeps struct {
	Visits   Repository
	Miles    MilesRepository
	Accesses AccessChecker
	Places   PlaceChecker
	Resolver resolver
}

type Service struct {
	visits   Repository
	miles    MilesRepository
	accesses AccessChecker
	places   PlaceChecker
	resolver resolver
}

func NewService(d ServiceDeps) *Service {
	return &Service{
		visits:   d.Visits,
		miles:    d.Miles,
		accesses: d.Accesses,
		places:   d.Places,
		resolver: d.Resolver,
	}
}

type ScheduleInput struct {
	EpisodeID uuid.UUID
	UserID    uuid.UUID
	PlaceID   *uuid.UUID
	Date      time.Time
	Notes     *string
}

// ScheduleVisit books a clinician onto an episode for one calendar day. The
// clinician must hold live access to the episode under the acting admin's
// organization.
func (s *Service) ScheduleVisit(ctx context.Context, actorID uuid.UUID, in ScheduleInput) (*Visit, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	ok, err := s.accesses.HasActiveAccess(ctx, grant.OrganizationID, in.EpisodeID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("check episode access: %w", err)
	}
	if !ok {
		return nil, apperr.InvalidInputf("user %s is not assigned to episode %s", in.UserID, in.EpisodeID)
	}

	if in.PlaceID != nil {
		ok, err := s.places.ExistsInOrg(ctx, grant.OrganizationID, *in.PlaceID)
		if err != nil {
			return nil, fmt.Errorf("check place: %w", err)
		}
		if !ok {
			return nil, apperr.InvalidInputf("place %s not found in organization", *in.PlaceID)
		}
	}

	v := &Visit{
		ID:            uuid.New(),
		EpisodeID:     in.EpisodeID,
		UserID:        in.UserID,
		PlaceID:       in.PlaceID,
		MidnightEpoch: MidnightEpoch(in.Date),
		Notes:         in.Notes,
		Stamp:         audit.NewStamp(actorID),
	}
	if err := s.visits.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	return v, nil
}

func (s *Service) GetVisit(ctx context.Context, actorID, visitID uuid.UUID) (*Visit, error) {
	if _, err := s.resolver.ResolveAdminGrant(ctx, actorID); err != nil {
		return nil, err
	}
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, apperr.NotFound("VISIT_NOT_FOUND", err)
	}
	return v, nil
}

func (s *Service) ListByEpisode(ctx context.Context, actorID, episodeID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	if _, err := s.resolver.ResolveAdminGrant(ctx, actorID); err != nil {
		return nil, 0, err
	}
	return s.visits.ListByEpisode(ctx, episodeID, limit, offset)
}

// MyVisits returns the actor's own schedule for a day range. No admin grant
// needed; clinicians read their own calendars.
func (s *Service) MyVisits(ctx context.Context, actorID uuid.UUID, from, to time.Time) ([]*Visit, error) {
	return s.visits.ListByUser(ctx, actorID, MidnightEpoch(from), MidnightEpoch(to))
}

// CompleteVisit marks the visit done. Only the visit's own clinician may
// complete it.
func (s *Service) CompleteVisit(ctx context.Context, actorID, visitID uuid.UUID, start, end *time.Time) error {
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return apperr.NotFound("VISIT_NOT_FOUND", err)
	}
	if v.UserID != actorID {
		return apperr.AccessDeniedf("visit %s does not belong to user %s", visitID, actorID)
	}
	if v.Completed {
		return nil
	}
	if err := s.visits.Complete(ctx, visitID, start, end, actorID); err != nil {
		return fmt.Errorf("complete visit: %w", err)
	}
	return nil
}

// SetMiles records or overwrites the drive for a visit.
func (s *Service) SetMiles(ctx context.Context, actorID, visitID uuid.UUID, miles float64) (*Miles, error) {
	if miles < 0 {
		return nil, apperr.InvalidInputf("miles must not be negative")
	}
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return nil, apperr.NotFound("VISIT_NOT_FOUND", err)
	}
	if v.UserID != actorID {
		return nil, apperr.AccessDeniedf("visit %s does not belong to user %s", visitID, actorID)
	}

	m := &Miles{
		ID:      uuid.New(),
		VisitID: visitID,
		Miles:   miles,
		Stamp:   audit.NewStamp(actorID),
	}
	if err := s.miles.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("upsert miles: %w", err)
	}
	return m, nil
}

// BelongsToUser reports whether the visit exists and is the user's own.
// Report items reference visits through this check.
func (s *Service) BelongsToUser(ctx context.Context, visitID, userID uuid.UUID) (bool, error) {
	v, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return false, nil
	}
	return v.UserID == userID, nil
}

func (s *Service) DeleteVisit(ctx context.Context, actorID, visitID uuid.UUID) error {
	if _, err := s.resolver.ResolveAdminGrant(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.visits.GetByID(ctx, visitID); err != nil {
		return apperr.NotFound("VISIT_NOT_FOUND", err)
	}
	return s.visits.SoftDelete(ctx, visitID, actorID)
}
