package organization

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/platform/db"
)

type memOrgRepo struct {
	orgs map[uuid.UUID]*Organization
}

func (r *memOrgRepo) Create(_ context.Context, o *Organization) error {
	r.orgs[o.ID] = o
	return nil
}

func (r *memOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*Organization, error) {
	o, ok := r.orgs[id]
	if !ok || o.Deleted() {
		return nil, errors.New("no rows")
	}
	return o, nil
}

func (r *memOrgRepo) Update(_ context.Context, o *Organization) error {
	r.orgs[o.ID] = o
	return nil
}

func (r *memOrgRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]*Organization, error) {
	var out []*Organization
	for _, o := range r.orgs {
		if !o.Deleted() {
			out = append(out, o)
		}
	}
	return out, nil
}

type memGrants struct {
	grants []*user.OrganizationAccess
}

func (r *memGrants) Create(_ context.Context, a *user.OrganizationAccess) error {
	r.grants = append(r.grants, a)
	return nil
}

type grantResolver struct {
	grants *memGrants
}

func (r *grantResolver) ResolveAdminGrant(_ context.Context, userID uuid.UUID) (*user.OrganizationAccess, error) {
	var found *user.OrganizationAccess
	n := 0
	for _, g := range r.grants.grants {
		if g.UserID == userID && g.IsAdmin && !g.Deleted() {
			found = g
			n++
		}
	}
	if n != 1 {
		return nil, apperr.AccessDeniedf("user %s has %d admin grants, want exactly 1", userID, n)
	}
	return found, nil
}

type noopTx struct{}

func (noopTx) Commit(context.Context) error   { return nil }
func (noopTx) Rollback(context.Context) error { return nil }

func newOrgService() (*Service, *memOrgRepo, *memGrants) {
	orgs := &memOrgRepo{orgs: map[uuid.UUID]*Organization{}}
	grants := &memGrants{}
	svc := NewService(ServiceDeps{
		Orgs:     orgs,
		Grants:   grants,
		Resolver: &grantResolver{grants: grants},
		Begin: func(ctx context.Context) (context.Context, db.Tx, error) {
			return ctx, noopTx{}, nil
		},
	})
	return svc, orgs, grants
}

func TestCreateOrganization_GrantsFounderAdmin(t *testing.T) {
	svc, _, grants := newOrgService()
	founder := uuid.New()

	o, err := svc.CreateOrganization(context.Background(), founder, CreateInput{Name: "Sunrise Home Care"})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if len(grants.grants) != 1 {
		t.Fatalf("want 1 founder grant, got %d", len(grants.grants))
	}
	g := grants.grants[0]
	if g.OrganizationID != o.ID || g.UserID != founder || !g.IsAdmin {
		t.Errorf("bad founder grant: %+v", g)
	}

	// The founder can immediately operate as the organization's admin.
	got, err := svc.GetOrganization(context.Background(), founder)
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if got.ID != o.ID {
		t.Errorf("wrong organization: %s", got.ID)
	}
}

func TestCreateOrganization_RequiresName(t *testing.T) {
	svc, _, _ := newOrgService()
	_, err := svc.CreateOrganization(context.Background(), uuid.New(), CreateInput{})
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}
}

func TestGetOrganization_NoGrant(t *testing.T) {
	svc, _, _ := newOrgService()
	_, err := svc.GetOrganization(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.KindAccessDenied) {
		t.Fatalf("want access denied, got %v", err)
	}
}

func TestUpdateOrganization(t *testing.T) {
	svc, orgs, _ := newOrgService()
	founder := uuid.New()
	o, err := svc.CreateOrganization(context.Background(), founder, CreateInput{Name: "Sunrise Home Care"})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	addr := "12 Main St"
	if _, err := svc.UpdateOrganization(context.Background(), founder, CreateInput{Name: "Sunset Home Care", Address: &addr}); err != nil {
		t.Fatalf("UpdateOrganization: %v", err)
	}
	got := orgs.orgs[o.ID]
	if got.Name != "Sunset Home Care" || got.Address == nil || *got.Address != addr {
		t.Errorf("update not applied: %+v", got)
	}

	// A non-member cannot touch it.
	if _, err := svc.UpdateOrganization(context.Background(), uuid.New(), CreateInput{Name: "X"}); !apperr.IsKind(err, apperr.KindAccessDenied) {
		t.Fatalf("want access denied, got %v", err)
	}
}
