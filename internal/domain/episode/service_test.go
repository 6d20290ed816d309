package episode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/notify"
)

type memEpisodeRepo struct {
	episodes map[uuid.UUID]*Episode
}

func newMemEpisodeRepo() *memEpisodeRepo {
	return &memEpisodeRepo{episodes: map[uuid.UUID]*Episode{}}
}

func (r *memEpisodeRepo) Create(_ context.Context, e *Episode) error {
	r.episodes[e.ID] = e
	return nil
}

func (r *memEpisodeRepo) GetByID(_ context.Context, id uuid.UUID) (*Episode, error) {
	e, ok := r.episodes[id]
	if !ok || e.Deleted() {
		return nil, errors.New("no rows")
	}
	return e, nil
}

func (r *memEpisodeRepo) ActiveByPatient(_ context.Context, patientID uuid.UUID) ([]*Episode, error) {
	var out []*Episode
	for _, e := range r.episodes {
		if e.PatientID == patientID && e.IsActive && !e.Deleted() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEpisodeRepo) AttachPhysician(_ context.Context, episodeID, physicianID, actorID uuid.UUID) error {
	e, ok := r.episodes[episodeID]
	if !ok {
		return errors.New("no rows")
	}
	e.PhysicianID = &physicianID
	e.Touch(actorID)
	return nil
}

func (r *memEpisodeRepo) Close(_ context.Context, episodeID, actorID uuid.UUID) error {
	e, ok := r.episodes[episodeID]
	if !ok {
		return errors.New("no rows")
	}
	e.IsActive = false
	e.Touch(actorID)
	return nil
}

type memAccessRepo struct {
	accesses map[uuid.UUID]*Access
}

func newMemAccessRepo() *memAccessRepo {
	return &memAccessRepo{accesses: map[uuid.UUID]*Access{}}
}

func (r *memAccessRepo) Create(_ context.Context, a *Access) error {
	cp := *a
	r.accesses[a.ID] = &cp
	return nil
}

func (r *memAccessRepo) ListByOrgEpisode(ctx context.Context, orgID, episodeID uuid.UUID) ([]*Access, error) {
	all, _ := r.ListByOrgEpisodeIncludingDeleted(ctx, orgID, episodeID)
	var out []*Access
	for _, a := range all {
		if !a.Deleted() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAccessRepo) ListByOrgEpisodeIncludingDeleted(_ context.Context, orgID, episodeID uuid.UUID) ([]*Access, error) {
	var out []*Access
	for _, a := range r.accesses {
		if a.OrganizationID == orgID && a.EpisodeID == episodeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAccessRepo) Resurrect(_ context.Context, id, actorID uuid.UUID) error {
	a, ok := r.accesses[id]
	if !ok {
		return errors.New("no rows")
	}
	a.Restore(actorID)
	return nil
}

func (r *memAccessRepo) SoftDelete(_ context.Context, id, actorID uuid.UUID) error {
	a, ok := r.accesses[id]
	if !ok {
		return errors.New("no rows")
	}
	a.MarkDeleted(actorID)
	return nil
}

func (r *memAccessRepo) SoftDeleteByUser(_ context.Context, userID, actorID uuid.UUID) (int, error) {
	n := 0
	for _, a := range r.accesses {
		if a.UserID == userID && !a.Deleted() {
			a.MarkDeleted(actorID)
			n++
		}
	}
	return n, nil
}

func (r *memAccessRepo) HasActiveAccess(_ context.Context, orgID, episodeID, userID uuid.UUID) (bool, error) {
	for _, a := range r.accesses {
		if a.OrganizationID == orgID && a.EpisodeID == episodeID && a.UserID == userID && !a.Deleted() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAccessRepo) live(orgID, episodeID uuid.UUID) []*Access {
	out, _ := r.ListByOrgEpisode(context.Background(), orgID, episodeID)
	return out
}

type memMembers struct {
	org     uuid.UUID
	members map[uuid.UUID]bool
}

func (m *memMembers) CountActiveMembers(_ context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (int, error) {
	if orgID != m.org {
		return 0, nil
	}
	n := 0
	for _, id := range userIDs {
		if m.members[id] {
			n++
		}
	}
	return n, nil
}

type deletedVisits struct {
	EpisodeID uuid.UUID
	UserID    uuid.UUID
	Cutoff    time.Time
}

type memVisits struct {
	calls []deletedVisits
}

func (m *memVisits) DeleteFutureIncomplete(_ context.Context, episodeID, userID uuid.UUID, cutoff time.Time) (int, error) {
	m.calls = append(m.calls, deletedVisits{EpisodeID: episodeID, UserID: userID, Cutoff: cutoff})
	return 1, nil
}

type memPhysicians struct {
	existing map[uuid.UUID]bool
}

func (m *memPhysicians) ExistsInOrg(_ context.Context, _, physicianID uuid.UUID) (bool, error) {
	return m.existing[physicianID], nil
}

type stubResolver struct {
	grant   *user.OrganizationAccess
	mapped  map[uuid.UUID]bool
	grantOK bool
}

func (s *stubResolver) ResolveAdminGrant(_ context.Context, _ uuid.UUID) (*user.OrganizationAccess, error) {
	if !s.grantOK {
		return nil, apperr.AccessDeniedf("no admin grant")
	}
	return s.grant, nil
}

func (s *stubResolver) RequireOrgPatient(_ context.Context, _, patientID uuid.UUID) error {
	if !s.mapped[patientID] {
		return apperr.AccessDeniedf("patient not in organization")
	}
	return nil
}

type stubTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *stubTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func stubBegin(tx *stubTx) db.BeginFunc {
	return func(ctx context.Context) (context.Context, db.Tx, error) {
		return ctx, tx, nil
	}
}

type fixture struct {
	svc       *Service
	episodes  *memEpisodeRepo
	accesses  *memAccessRepo
	visits    *memVisits
	publisher *notify.MemoryPublisher
	tx        *stubTx

	orgID     uuid.UUID
	actorID   uuid.UUID
	patientID uuid.UUID
	episodeID uuid.UUID
}

func newFixture(t *testing.T, memberIDs ...uuid.UUID) *fixture {
	t.Helper()
	f := &fixture{
		episodes:  newMemEpisodeRepo(),
		accesses:  newMemAccessRepo(),
		visits:    &memVisits{},
		publisher: notify.NewMemoryPublisher(),
		tx:        &stubTx{},
		orgID:     uuid.New(),
		actorID:   uuid.New(),
		patientID: uuid.New(),
		episodeID: uuid.New(),
	}

	f.episodes.episodes[f.episodeID] = &Episode{
		ID:        f.episodeID,
		PatientID: f.patientID,
		IsActive:  true,
		Stamp:     audit.NewStamp(f.actorID),
	}

	members := map[uuid.UUID]bool{}
	for _, id := range memberIDs {
		members[id] = true
	}

	f.svc = NewService(ServiceDeps{
		Episodes:   f.episodes,
		Accesses:   f.accesses,
		Members:    &memMembers{org: f.orgID, members: members},
		Visits:     f.visits,
		Physicians: &memPhysicians{existing: map[uuid.UUID]bool{}},
		Resolver: &stubResolver{
			grantOK: true,
			grant:   &user.OrganizationAccess{ID: uuid.New(), OrganizationID: f.orgID, UserID: f.actorID, IsAdmin: true},
			mapped:  map[uuid.UUID]bool{f.patientID: true},
		},
		Publisher: f.publisher,
		Logger:    zerolog.Nop(),
		Begin:     stubBegin(f.tx),
	})
	return f
}

func (f *fixture) assign(t *testing.T, userIDs ...uuid.UUID) {
	t.Helper()
	err := f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
		PatientID: f.patientID,
		UserIDs:   userIDs,
	})
	if err != nil {
		t.Fatalf("UpdateAssignments: %v", err)
	}
}

func countAction(msgs []notify.Published, action notify.Action) int {
	n := 0
	for _, m := range msgs {
		if m.Message.ActionType == action {
			n++
		}
	}
	return n
}

func TestUpdateAssignments_CreatesAccessAndNotifies(t *testing.T) {
	userA := uuid.New()
	f := newFixture(t, userA)

	f.assign(t, userA)

	live := f.accesses.live(f.orgID, f.episodeID)
	if len(live) != 1 {
		t.Fatalf("want 1 live access, got %d", len(live))
	}
	if live[0].Role != DefaultRole {
		t.Errorf("want default role %q, got %q", DefaultRole, live[0].Role)
	}
	if !f.tx.committed {
		t.Error("transaction not committed")
	}

	userMsgs := f.publisher.ByChannel(notify.UserAssignmentChannel(userA))
	if len(userMsgs) != 2 {
		t.Fatalf("want silent + alert assign messages, got %d", len(userMsgs))
	}
	if userMsgs[0].ActionType != notify.ActionAssign || userMsgs[0].Title != "" {
		t.Errorf("first message must be the silent assign: %+v", userMsgs[0])
	}
	if userMsgs[1].ActionType != notify.ActionAssign || userMsgs[1].Title == "" {
		t.Errorf("second message must be the alert assign: %+v", userMsgs[1])
	}

	epMsgs := f.publisher.ByChannel(notify.EpisodeChannel(f.episodeID))
	if len(epMsgs) != 1 || epMsgs[0].ActionType != notify.ActionUserAssigned {
		t.Errorf("want one USER_ASSIGNED broadcast, got %+v", epMsgs)
	}
}

// Re-submitting the same set must not duplicate rows and must downgrade the
// notifications to UPDATE only.
func TestUpdateAssignments_IdempotentReassignment(t *testing.T) {
	userA := uuid.New()
	f := newFixture(t, userA)

	f.assign(t, userA)
	f.publisher.Reset()
	f.assign(t, userA)

	if n := len(f.accesses.accesses); n != 1 {
		t.Fatalf("second call duplicated rows: %d", n)
	}
	msgs := f.publisher.ByChannel(notify.UserAssignmentChannel(userA))
	if len(msgs) != 1 || msgs[0].ActionType != notify.ActionUpdate {
		t.Fatalf("second call must send UPDATE only, got %+v", msgs)
	}
	if got := countAction(f.publisher.Published(), notify.ActionAssign); got != 0 {
		t.Errorf("second call sent %d ASSIGN messages", got)
	}
}

// A returning user gets the same access row back, not a new one.
func TestUpdateAssignments_ResurrectsSoftDeletedRow(t *testing.T) {
	userA := uuid.New()
	f := newFixture(t, userA)

	f.assign(t, userA)
	originalID := f.accesses.live(f.orgID, f.episodeID)[0].ID

	f.assign(t) // remove
	if len(f.accesses.live(f.orgID, f.episodeID)) != 0 {
		t.Fatal("access not soft-deleted on removal")
	}

	f.publisher.Reset()
	f.assign(t, userA) // bring back

	live := f.accesses.live(f.orgID, f.episodeID)
	if len(live) != 1 {
		t.Fatalf("want 1 live access, got %d", len(live))
	}
	if live[0].ID != originalID {
		t.Errorf("want resurrected row %s, got new row %s", originalID, live[0].ID)
	}
	if live[0].Deleted() {
		t.Error("deleted_at not cleared")
	}
	if len(f.accesses.accesses) != 1 {
		t.Errorf("resurrection created extra rows: %d", len(f.accesses.accesses))
	}
	if got := countAction(f.publisher.Published(), notify.ActionAssign); got != 2 {
		t.Errorf("resurrection must send silent + alert assign, got %d", got)
	}
}

// {A,B,C} -> {B,D}: B untouched, A and C removed with visit cleanup, D added.
func TestUpdateAssignments_ReconcilesSet(t *testing.T) {
	userA, userB, userC, userD := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	f := newFixture(t, userA, userB, userC, userD)

	f.assign(t, userA, userB, userC)
	f.publisher.Reset()
	f.assign(t, userB, userD)

	live := f.accesses.live(f.orgID, f.episodeID)
	liveUsers := map[uuid.UUID]bool{}
	for _, a := range live {
		liveUsers[a.UserID] = true
	}
	if len(live) != 2 || !liveUsers[userB] || !liveUsers[userD] {
		t.Fatalf("want live set {B,D}, got %v", liveUsers)
	}

	for _, removed := range []uuid.UUID{userA, userC} {
		msgs := f.publisher.ByChannel(notify.UserAssignmentChannel(removed))
		if len(msgs) != 1 || msgs[0].ActionType != notify.ActionUnassign {
			t.Errorf("removed user %s: want one UNASSIGN, got %+v", removed, msgs)
		}
	}
	if msgs := f.publisher.ByChannel(notify.UserAssignmentChannel(userB)); len(msgs) != 1 || msgs[0].ActionType != notify.ActionUpdate {
		t.Errorf("kept user must get UPDATE, got %+v", msgs)
	}

	if len(f.visits.calls) != 2 {
		t.Fatalf("want future-visit cleanup for 2 removed users, got %d", len(f.visits.calls))
	}
	today := time.Now().UTC()
	for _, c := range f.visits.calls {
		if c.EpisodeID != f.episodeID {
			t.Errorf("visit cleanup on wrong episode: %s", c.EpisodeID)
		}
		if c.Cutoff.Hour() != 0 || c.Cutoff.Minute() != 0 || c.Cutoff.Day() != today.Day() {
			t.Errorf("cutoff must be start of current UTC day, got %v", c.Cutoff)
		}
	}

	epMsgs := f.publisher.ByChannel(notify.EpisodeChannel(f.episodeID))
	if got := countAction(wrap(epMsgs), notify.ActionUserUnassigned); got != 2 {
		t.Errorf("want 2 USER_UNASSIGNED broadcasts, got %d", got)
	}
	if got := countAction(wrap(epMsgs), notify.ActionUserAssigned); got != 1 {
		t.Errorf("want 1 USER_ASSIGNED broadcast for D, got %d", got)
	}
}

func wrap(msgs []notify.Message) []notify.Published {
	out := make([]notify.Published, len(msgs))
	for i, m := range msgs {
		out[i] = notify.Published{Message: m}
	}
	return out
}

// Zero or multiple active episodes is a data-integrity failure; nothing is
// written and nothing is published.
func TestUpdateAssignments_FailsClosedOnActiveEpisodeCount(t *testing.T) {
	userA := uuid.New()

	t.Run("zero", func(t *testing.T) {
		f := newFixture(t, userA)
		f.episodes.episodes[f.episodeID].IsActive = false

		err := f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
			PatientID: f.patientID, UserIDs: []uuid.UUID{userA},
		})
		if !apperr.IsKind(err, apperr.KindDataIntegrity) {
			t.Fatalf("want data integrity error, got %v", err)
		}
	})

	t.Run("two", func(t *testing.T) {
		f := newFixture(t, userA)
		second := uuid.New()
		f.episodes.episodes[second] = &Episode{
			ID: second, PatientID: f.patientID, IsActive: true, Stamp: audit.NewStamp(f.actorID),
		}

		err := f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
			PatientID: f.patientID, UserIDs: []uuid.UUID{userA},
		})
		if !apperr.IsKind(err, apperr.KindDataIntegrity) {
			t.Fatalf("want data integrity error, got %v", err)
		}
		if len(f.accesses.accesses) != 0 {
			t.Error("accesses written despite integrity failure")
		}
		if len(f.publisher.Published()) != 0 {
			t.Error("notifications published despite integrity failure")
		}
		if !f.tx.rolledBack {
			t.Error("transaction not rolled back")
		}
	})
}

// Users outside the organization fail count validation; patients outside the
// organization are access denied. No partial application either way.
func TestUpdateAssignments_RejectsCrossOrg(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	f := newFixture(t, member)

	err := f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
		PatientID: f.patientID, UserIDs: []uuid.UUID{member, outsider},
	})
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Fatalf("want invalid input for foreign user, got %v", err)
	}
	if len(f.accesses.accesses) != 0 {
		t.Error("partial application: access rows written")
	}

	err = f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
		PatientID: uuid.New(), UserIDs: []uuid.UUID{member},
	})
	if !apperr.IsKind(err, apperr.KindAccessDenied) {
		t.Fatalf("want access denied for foreign patient, got %v", err)
	}
}

func TestUpdateAssignments_DuplicateIDsCollapse(t *testing.T) {
	userA := uuid.New()
	f := newFixture(t, userA)

	f.assign(t, userA, userA, userA)

	if n := len(f.accesses.accesses); n != 1 {
		t.Fatalf("duplicate ids created %d rows", n)
	}
}

func TestUpdateAssignments_AttachesPhysician(t *testing.T) {
	userA := uuid.New()
	physID := uuid.New()
	f := newFixture(t, userA)
	f.svc.physicians = &memPhysicians{existing: map[uuid.UUID]bool{physID: true}}

	err := f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
		PatientID:   f.patientID,
		UserIDs:     []uuid.UUID{userA},
		PhysicianID: &physID,
	})
	if err != nil {
		t.Fatalf("UpdateAssignments: %v", err)
	}
	ep := f.episodes.episodes[f.episodeID]
	if ep.PhysicianID == nil || *ep.PhysicianID != physID {
		t.Errorf("physician not attached: %v", ep.PhysicianID)
	}

	unknown := uuid.New()
	err = f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
		PatientID:   f.patientID,
		UserIDs:     []uuid.UUID{userA},
		PhysicianID: &unknown,
	})
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Errorf("unknown physician must be invalid input, got %v", err)
	}
}

func TestUpdateAssignments_NoNotificationsOnFailedCommit(t *testing.T) {
	userA := uuid.New()
	f := newFixture(t, userA)
	f.tx.commitErr = errors.New("connection reset")

	err := f.svc.UpdateAssignments(context.Background(), f.actorID, AssignmentRequest{
		PatientID: f.patientID, UserIDs: []uuid.UUID{userA},
	})
	if err == nil {
		t.Fatal("expected commit error")
	}
	if len(f.publisher.Published()) != 0 {
		t.Errorf("notifications leaked past failed commit: %+v", f.publisher.Published())
	}
}

// Full walkthrough: onboard a team, rotate one member out and a former member
// back in, verifying rows and notifications at each step.
func TestUpdateAssignments_TeamRotation(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	f := newFixture(t, alice, bob, carol)

	// Day 1: alice and bob onboard.
	f.assign(t, alice, bob)
	if len(f.accesses.live(f.orgID, f.episodeID)) != 2 {
		t.Fatal("onboarding failed")
	}

	// Day 2: bob rotates out, carol in.
	f.publisher.Reset()
	f.assign(t, alice, carol)

	bobMsgs := f.publisher.ByChannel(notify.UserAssignmentChannel(bob))
	if len(bobMsgs) != 1 || bobMsgs[0].ActionType != notify.ActionUnassign {
		t.Fatalf("bob must be unassigned, got %+v", bobMsgs)
	}
	if len(f.visits.calls) != 1 || f.visits.calls[0].UserID != bob {
		t.Fatalf("bob's future visits must be cleaned, got %+v", f.visits.calls)
	}

	// Day 3: bob returns; his original row is resurrected.
	var bobRowID uuid.UUID
	for id, a := range f.accesses.accesses {
		if a.UserID == bob {
			bobRowID = id
		}
	}
	f.publisher.Reset()
	f.assign(t, alice, bob, carol)

	if len(f.accesses.accesses) != 3 {
		t.Fatalf("rotation created extra rows: %d", len(f.accesses.accesses))
	}
	if f.accesses.accesses[bobRowID].Deleted() {
		t.Error("bob's row not resurrected")
	}
	if got := countAction(f.publisher.Published(), notify.ActionAssign); got != 2 {
		t.Errorf("bob's return must publish silent + alert assign, got %d", got)
	}
}

func TestOpenActive(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	if err := f.svc.OpenActive(context.Background(), patientID, f.actorID); err != nil {
		t.Fatalf("OpenActive: %v", err)
	}
	active, _ := f.episodes.ActiveByPatient(context.Background(), patientID)
	if len(active) != 1 {
		t.Fatalf("want 1 active episode, got %d", len(active))
	}
	if active[0].StartDate == nil {
		t.Error("start date not set")
	}
}

func TestListTeam(t *testing.T) {
	userA := uuid.New()
	f := newFixture(t, userA)
	f.assign(t, userA)

	ep, team, err := f.svc.ListTeam(context.Background(), f.actorID, f.patientID)
	if err != nil {
		t.Fatalf("ListTeam: %v", err)
	}
	if ep.ID != f.episodeID {
		t.Errorf("wrong episode: %s", ep.ID)
	}
	if len(team) != 1 || team[0].UserID != userA {
		t.Errorf("wrong team: %+v", team)
	}
}
