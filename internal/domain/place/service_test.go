package place

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/platform/notify"
)

type memPlaceRepo struct {
	places map[uuid.UUID]*Place
}

func (r *memPlaceRepo) Create(_ context.Context, p *Place) error {
	r.places[p.ID] = p
	return nil
}

func (r *memPlaceRepo) GetByID(_ context.Context, id uuid.UUID) (*Place, error) {
	p, ok := r.places[id]
	if !ok || p.Deleted() {
		return nil, errors.New("no rows")
	}
	return p, nil
}

func (r *memPlaceRepo) Update(_ context.Context, p *Place) error {
	r.places[p.ID] = p
	return nil
}

func (r *memPlaceRepo) SoftDelete(_ context.Context, id, actorID uuid.UUID) error {
	p, ok := r.places[id]
	if !ok {
		return errors.New("no rows")
	}
	p.MarkDeleted(actorID)
	return nil
}

func (r *memPlaceRepo) ListByOrganization(_ context.Context, orgID uuid.UUID, _, _ int) ([]*Place, int, error) {
	var out []*Place
	for _, p := range r.places {
		if p.OrganizationID == orgID && !p.Deleted() {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *memPlaceRepo) ExistsInOrg(_ context.Context, orgID, placeID uuid.UUID) (bool, error) {
	p, ok := r.places[placeID]
	return ok && p.OrganizationID == orgID && !p.Deleted(), nil
}

type adminOnly struct {
	orgID   uuid.UUID
	adminID uuid.UUID
}

func (r *adminOnly) ResolveAdminGrant(_ context.Context, userID uuid.UUID) (*user.OrganizationAccess, error) {
	if userID != r.adminID {
		return nil, apperr.AccessDeniedf("user %s has 0 admin grants", userID)
	}
	return &user.OrganizationAccess{OrganizationID: r.orgID, UserID: userID, IsAdmin: true}, nil
}

func TestPlaceLifecycle_Broadcasts(t *testing.T) {
	orgID, adminID := uuid.New(), uuid.New()
	repo := &memPlaceRepo{places: map[uuid.UUID]*Place{}}
	pub := notify.NewMemoryPublisher()
	svc := NewService(repo, &adminOnly{orgID: orgID, adminID: adminID}, pub)

	p, err := svc.CreatePlace(context.Background(), adminID, CreateInput{Name: "Riverside Clinic"})
	if err != nil {
		t.Fatalf("CreatePlace: %v", err)
	}

	p.Name = "Riverside Clinic North"
	if err := svc.UpdatePlace(context.Background(), adminID, p); err != nil {
		t.Fatalf("UpdatePlace: %v", err)
	}

	if err := svc.DeletePlace(context.Background(), adminID, p.ID); err != nil {
		t.Fatalf("DeletePlace: %v", err)
	}
	if !repo.places[p.ID].Deleted() {
		t.Error("place not soft-deleted")
	}

	msgs := pub.ByChannel(notify.OrgChannel(orgID))
	want := []notify.Action{notify.ActionCreatePlace, notify.ActionUpdatePlace, notify.ActionDeletePlace}
	if len(msgs) != len(want) {
		t.Fatalf("want %d org broadcasts, got %d", len(want), len(msgs))
	}
	for i, action := range want {
		if msgs[i].ActionType != action {
			t.Errorf("broadcast %d: want %s, got %s", i, action, msgs[i].ActionType)
		}
		if msgs[i].PlaceID == nil || *msgs[i].PlaceID != p.ID {
			t.Errorf("broadcast %d carries wrong place id", i)
		}
	}
}

func TestPlace_NonAdminRejected(t *testing.T) {
	repo := &memPlaceRepo{places: map[uuid.UUID]*Place{}}
	svc := NewService(repo, &adminOnly{orgID: uuid.New(), adminID: uuid.New()}, notify.NewMemoryPublisher())

	_, err := svc.CreatePlace(context.Background(), uuid.New(), CreateInput{Name: "X"})
	if !apperr.IsKind(err, apperr.KindAccessDenied) {
		t.Fatalf("want access denied, got %v", err)
	}
}

func TestPlace_ForeignOrgHidden(t *testing.T) {
	orgID, adminID := uuid.New(), uuid.New()
	repo := &memPlaceRepo{places: map[uuid.UUID]*Place{}}
	svc := NewService(repo, &adminOnly{orgID: orgID, adminID: adminID}, notify.NewMemoryPublisher())

	foreign := &Place{ID: uuid.New(), OrganizationID: uuid.New(), Name: "Elsewhere"}
	repo.places[foreign.ID] = foreign

	_, err := svc.GetPlace(context.Background(), adminID, foreign.ID)
	if !apperr.IsKind(err, apperr.KindAccessDenied) {
		t.Fatalf("foreign place must be access denied, got %v", err)
	}
}
