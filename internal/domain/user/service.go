package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/notify"
)

// Cascader soft-deletes all of a user's rows in one dependent table. The
// episode-access, visit and report repositories each implement it.
type Cascader interface {
	SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error)
}

// adminResolver is the slice of the access resolver this service needs.
type adminResolver interface {
	ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*OrganizationAccess, error)
}

type ServiceDeps struct {
	Profiles        ProfileRepository
	OrgAccesses     OrgAccessRepository
	EpisodeAccesses Cascader
	Visits          Cascader
	Reports         Cascader
	Resolver        adminResolver
	Publisher       notify.Publisher
	Begin           db.BeginFunc
}

// Service manages user profiles, including the depth-one soft-delete cascade:
// deleting a profile marks its org accesses, episode accesses, visits and
// reports deleted, and nothing further.
type Service struct {
	profiles        ProfileRepository
	orgAccesses     OrgAccessRepository
	episodeAccesses Cascader
	visits          Cascader
	reports         Cascader
	resolver        adminResolver
	publisher       notify.Publisher
	begin           db.BeginFunc
}

func NewService(d ServiceDeps) *Service {
	if d.Begin == nil {
		d.Begin = db.Begin
	}
	return &Service{
		profiles:        d.Profiles,
		orgAccesses:     d.OrgAccesses,
		episodeAccesses: d.EpisodeAccesses,
		visits:          d.Visits,
		reports:         d.Reports,
		resolver:        d.Resolver,
		publisher:       d.Publisher,
		begin:           d.Begin,
	}
}

// CreateInput carries a new staff member's profile and membership.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Role      string
	IsAdmin   bool
}

const defaultMemberRole = "clinician"

// CreateProfile creates a profile plus its membership in the acting admin's
// organization, in one transaction.
func (s *Service) CreateProfile(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Profile, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.InvalidInputf("first_name and last_name are required")
	}
	role := in.Role
	if role == "" {
		role = defaultMemberRole
	}

	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p := &Profile{
		ID:        uuid.New(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Stamp:     audit.NewStamp(actorID),
	}
	if err := s.profiles.Create(txCtx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	access := &OrganizationAccess{
		ID:             uuid.New(),
		OrganizationID: grant.OrganizationID,
		UserID:         p.ID,
		Role:           role,
		IsAdmin:        in.IsAdmin,
		Stamp:          audit.NewStamp(actorID),
	}
	if err := s.orgAccesses.Create(txCtx, access); err != nil {
		return nil, fmt.Errorf("create org access: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// GetProfile returns an active profile in the acting admin's organization.
func (s *Service) GetProfile(ctx context.Context, actorID, userID uuid.UUID) (*Profile, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, grant.OrganizationID, userID); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("USER_NOT_FOUND", err)
	}
	return p, nil
}

// ListProfiles lists active members of the acting admin's organization.
func (s *Service) ListProfiles(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Profile, int, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.profiles.ListByOrganization(ctx, grant.OrganizationID, limit, offset)
}

// UpdateProfile updates contact fields and announces the change on the
// organization channel.
func (s *Service) UpdateProfile(ctx context.Context, actorID uuid.UUID, p *Profile) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, grant.OrganizationID, p.ID); err != nil {
		return err
	}
	if p.FirstName == "" || p.LastName == "" {
		return apperr.InvalidInputf("first_name and last_name are required")
	}

	p.Touch(actorID)
	if err := s.profiles.Update(ctx, p); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	s.publisher.Publish(ctx, notify.OrgChannel(grant.OrganizationID), notify.UserUpdate(p.ID))
	return nil
}

// DeleteProfile soft-deletes a profile and cascades, depth one, to the user's
// org accesses, episode accesses, visits and reports. Repeat calls are no-ops.
func (s *Service) DeleteProfile(ctx context.Context, actorID, userID uuid.UUID) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.requireMemberOrDeleted(ctx, grant.OrganizationID, userID); err != nil {
		return err
	}

	p, err := s.profiles.GetByIDIncludingDeleted(ctx, userID)
	if err != nil {
		return apperr.NotFound("USER_NOT_FOUND", err)
	}
	if p.Deleted() {
		return nil
	}

	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.profiles.SoftDelete(txCtx, userID, actorID); err != nil {
		return fmt.Errorf("soft delete profile: %w", err)
	}
	if _, err := s.orgAccesses.SoftDeleteByUser(txCtx, userID, actorID); err != nil {
		return fmt.Errorf("cascade org accesses: %w", err)
	}
	if _, err := s.episodeAccesses.SoftDeleteByUser(txCtx, userID, actorID); err != nil {
		return fmt.Errorf("cascade episode accesses: %w", err)
	}
	if _, err := s.visits.SoftDeleteByUser(txCtx, userID, actorID); err != nil {
		return fmt.Errorf("cascade visits: %w", err)
	}
	if _, err := s.reports.SoftDeleteByUser(txCtx, userID, actorID); err != nil {
		return fmt.Errorf("cascade reports: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Service) requireMember(ctx context.Context, orgID, userID uuid.UUID) error {
	ok, err := s.orgAccesses.IsMember(ctx, orgID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return apperr.AccessDeniedf("user %s is not a member of organization %s", userID, orgID)
	}
	return nil
}

// requireMemberOrDeleted admits users whose membership rows were already
// cascaded away, so repeat deletes stay idempotent instead of flipping to
// access denied.
func (s *Service) requireMemberOrDeleted(ctx context.Context, orgID, userID uuid.UUID) error {
	err := s.requireMember(ctx, orgID, userID)
	if err == nil {
		return nil
	}
	if !apperr.IsKind(err, apperr.KindAccessDenied) {
		return err
	}
	p, getErr := s.profiles.GetByIDIncludingDeleted(ctx, userID)
	if getErr != nil || !p.Deleted() {
		return err
	}
	return nil
}
