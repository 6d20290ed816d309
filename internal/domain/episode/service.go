package episode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/notify"
)

type resolver interface {
	ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*user.OrganizationAccess, error)
	RequireOrgPatient(ctx context.Context, orgID, patientID uuid.UUID) error
}

// MemberCounter reports how many of the given users are active members of the
// organization. Used for count-based set validation: requested count must
// equal matching count or the whole request is rejected.
type MemberCounter interface {
	CountActiveMembers(ctx context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (int, error)
}

// FutureVisitDeleter removes a user's scheduled, not-yet-completed visits for
// an episode from the cutoff day onward. Deletion is hard; completed visits
// are history and stay.
type FutureVisitDeleter interface {
	DeleteFutureIncomplete(ctx context.Context, episodeID, userID uuid.UUID, cutoff time.Time) (int, error)
}

// PhysicianChecker verifies a physician exists under the organization.
type PhysicianChecker interface {
	ExistsInOrg(ctx context.Context, orgID, physicianID uuid.UUID) (bool, error)
}

type ServiceDeps struct {
	Episodes   EpisodeRepository
	Accesses   AccessRepository
	Members    MemberCounter
	Visits     FutureVisitDeleter
	Physicians PhysicianChecker
	Resolver   resolver
	Publisher  notify.Publisher
	Logger     zerolog.Logger
	Begin      db.BeginFunc
}

type Service struct {
	episodes   EpisodeRepository
	accesses   AccessRepository
	members    MemberCounter
	visits     FutureVisitDeleter
	physicians PhysicianChecker
	resolver   resolver
	publisher  notify.Publisher
	log        zerolog.Logger
	begin      db.BeginFunc
}

func NewService(d ServiceDeps) *Service {
	if d.Begin == nil {
		d.Begin = db.Begin
	}
	return &Service{
		episodes:   d.Episodes,
		accesses:   d.Accesses,
		members:    d.Members,
		visits:     d.Visits,
		physicians: d.Physicians,
		resolver:   d.Resolver,
		publisher:  d.Publisher,
		log:        d.Logger,
		begin:      d.Begin,
	}
}

// AssignmentRequest is the desired end state of a patient's care team.
type AssignmentRequest struct {
	PatientID   uuid.UUID
	UserIDs     []uuid.UUID
	PhysicianID *uuid.UUID
}

// UpdateAssignments reconciles the care team of the patient's active episode
// against the desired user set, inside one transaction. Users already on the
// team get an update notification; users returning after removal have their
// old access row resurrected; new users get a fresh access row. Users dropped
// from the set lose their access and their future unfinished visits.
// Notifications are staged during the transaction and dispatched only after
// commit, so a rollback sends nothing.
func (s *Service) UpdateAssignments(ctx context.Context, actorID uuid.UUID, req AssignmentRequest) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	orgID := grant.OrganizationID

	if err := s.resolver.RequireOrgPatient(ctx, orgID, req.PatientID); err != nil {
		return err
	}

	desired := dedupe(req.UserIDs)
	if len(desired) > 0 {
		n, err := s.members.CountActiveMembers(ctx, orgID, desired)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if n != len(desired) {
			return apperr.InvalidInputf("%d of %d requested users are not members of the organization", len(desired)-n, len(desired))
		}
	}

	if req.PhysicianID != nil {
		ok, err := s.physicians.ExistsInOrg(ctx, orgID, *req.PhysicianID)
		if err != nil {
			return fmt.Errorf("check physician: %w", err)
		}
		if !ok {
			return apperr.InvalidInputf("physician %s not found in organization", *req.PhysicianID)
		}
	}

	queue := notify.NewQueue(s.publisher)

	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	active, err := s.episodes.ActiveByPatient(txCtx, req.PatientID)
	if err != nil {
		return fmt.Errorf("resolve active episode: %w", err)
	}
	if len(active) != 1 {
		return apperr.DataIntegrityf("patient %s has %d active episodes, want exactly 1", req.PatientID, len(active))
	}
	ep := active[0]

	if req.PhysicianID != nil {
		if err := s.episodes.AttachPhysician(txCtx, ep.ID, *req.PhysicianID, actorID); err != nil {
			return fmt.Errorf("attach physician: %w", err)
		}
	}

	existing, err := s.accesses.ListByOrgEpisodeIncludingDeleted(txCtx, orgID, ep.ID)
	if err != nil {
		return fmt.Errorf("list accesses: %w", err)
	}
	byUser := make(map[uuid.UUID]*Access, len(existing))
	for _, a := range existing {
		byUser[a.UserID] = a
	}

	inDesired := make(map[uuid.UUID]bool, len(desired))
	for _, userID := range desired {
		inDesired[userID] = true

		cur, found := byUser[userID]
		switch {
		case found && !cur.Deleted():
			queue.Add(notify.UserAssignmentChannel(userID), notify.Update(req.PatientID))

		case found:
			if err := s.accesses.Resurrect(txCtx, cur.ID, actorID); err != nil {
				return fmt.Errorf("resurrect access %s: %w", cur.ID, err)
			}
			s.queueAssigned(queue, ep.ID, userID, req.PatientID)

		default:
			a := &Access{
				ID:             uuid.New(),
				EpisodeID:      ep.ID,
				UserID:         userID,
				OrganizationID: orgID,
				Role:           DefaultRole,
				Stamp:          audit.NewStamp(actorID),
			}
			if err := s.accesses.Create(txCtx, a); err != nil {
				return fmt.Errorf("create access for user %s: %w", userID, err)
			}
			s.queueAssigned(queue, ep.ID, userID, req.PatientID)
		}
	}

	cutoff := startOfDayUTC(time.Now())
	for _, a := range existing {
		if a.Deleted() || inDesired[a.UserID] {
			continue
		}
		if err := s.accesses.SoftDelete(txCtx, a.ID, actorID); err != nil {
			return fmt.Errorf("soft delete access %s: %w", a.ID, err)
		}
		deleted, err := s.visits.DeleteFutureIncomplete(txCtx, ep.ID, a.UserID, cutoff)
		if err != nil {
			return fmt.Errorf("delete future visits of user %s: %w", a.UserID, err)
		}
		if deleted > 0 {
			s.log.Info().
				Str("episode_id", ep.ID.String()).
				Str("user_id", a.UserID.String()).
				Int("visits", deleted).
				Msg("removed future visits on unassignment")
		}
		queue.Add(notify.UserAssignmentChannel(a.UserID), notify.Unassign(req.PatientID))
		queue.Add(notify.EpisodeChannel(ep.ID), notify.UserUnassigned(ep.ID, a.UserID))
	}

	if err := tx.Commit(ctx); err != nil {
		queue.Discard()
		return fmt.Errorf("commit: %w", err)
	}
	queue.Flush(ctx)
	return nil
}

func (s *Service) queueAssigned(queue *notify.Queue, episodeID, userID, patientID uuid.UUID) {
	ch := notify.UserAssignmentChannel(userID)
	queue.Add(ch, notify.Assign(patientID))
	queue.Add(ch, notify.AssignAlert(patientID, "New patient", "A patient has been assigned to you"))
	queue.Add(notify.EpisodeChannel(episodeID), notify.UserAssigned(episodeID, userID))
}

// OpenActive starts a fresh active episode for the patient. Called from
// patient creation so the one-active-episode invariant holds immediately.
func (s *Service) OpenActive(ctx context.Context, patientID, actorID uuid.UUID) error {
	now := time.Now().UTC()
	e := &Episode{
		ID:        uuid.New(),
		PatientID: patientID,
		StartDate: &now,
		IsActive:  true,
		Stamp:     audit.NewStamp(actorID),
	}
	return s.episodes.Create(ctx, e)
}

// ListTeam returns the live care team of the patient's active episode.
func (s *Service) ListTeam(ctx context.Context, actorID, patientID uuid.UUID) (*Episode, []*Access, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.resolver.RequireOrgPatient(ctx, grant.OrganizationID, patientID); err != nil {
		return nil, nil, err
	}

	active, err := s.episodes.ActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve active episode: %w", err)
	}
	if len(active) != 1 {
		return nil, nil, apperr.DataIntegrityf("patient %s has %d active episodes, want exactly 1", patientID, len(active))
	}
	team, err := s.accesses.ListByOrgEpisode(ctx, grant.OrganizationID, active[0].ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list team: %w", err)
	}
	return active[0], team, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
