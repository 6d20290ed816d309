package user

import (
	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Profile maps to the user_profile table. Login identity (credentials) is
// owned by the external identity provider; the profile carries contact data
// only.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	audit.Stamp
}

// OrganizationAccess maps to the user_organization_access table. It defines
// organizational membership; at most one active row per user may carry
// IsAdmin (partial unique index, re-checked by the access resolver).
type OrganizationAccess struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Role           string    `db:"role" json:"role"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	audit.Stamp
}
