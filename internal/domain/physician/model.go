package physician

import (
	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Physician maps to the physician table: an external doctor attachable to
// episodes. Org-scoped like every other entity.
type Physician struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	NPI            *string   `db:"npi" json:"npi,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Fax            *string   `db:"fax" json:"fax,omitempty"`
	audit.Stamp
}
