// Package access answers two questions for every mutating operation: which
// organization does the acting user administer, and may that organization act
// on the target entity. Absent mappings surface as AccessDenied, never as
// not-found, so records outside the caller's organization stay invisible.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/user"
)

// AdminGrantSource lists a user's active admin org accesses.
type AdminGrantSource interface {
	AdminGrantsByUser(ctx context.Context, userID uuid.UUID) ([]*user.OrganizationAccess, error)
}

// PatientMappingSource checks the organization→patient mapping.
type PatientMappingSource interface {
	MappingExists(ctx context.Context, orgID, patientID uuid.UUID) (bool, error)
}

type Resolver struct {
	grants   AdminGrantSource
	mappings PatientMappingSource
}

func NewResolver(grants AdminGrantSource, mappings PatientMappingSource) *Resolver {
	return &Resolver{grants: grants, mappings: mappings}
}

// ResolveAdminGrant returns the single active admin access of userID. Zero or
// multiple grants are both AccessDenied: zero means no admin rights, multiple
// means corrupt access data nobody should act on.
func (r *Resolver) ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*user.OrganizationAccess, error) {
	grants, err := r.grants.AdminGrantsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve admin grant: %w", err)
	}
	if len(grants) != 1 {
		return nil, apperr.AccessDeniedf("user %s has %d admin grants", userID, len(grants))
	}
	return grants[0], nil
}

// RequireOrgPatient confirms an active mapping between the organization and
// the patient.
func (r *Resolver) RequireOrgPatient(ctx context.Context, orgID, patientID uuid.UUID) error {
	ok, err := r.mappings.MappingExists(ctx, orgID, patientID)
	if err != nil {
		return fmt.Errorf("check patient mapping: %w", err)
	}
	if !ok {
		return apperr.AccessDeniedf("organization %s has no mapping to patient %s", orgID, patientID)
	}
	return nil
}
