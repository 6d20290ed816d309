package organization

import (
	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Organization maps to the organization table: one home-care agency. All
// patient, place and physician visibility is scoped through it.
type Organization struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	Address *string   `db:"address" json:"address,omitempty"`
	Phone   *string   `db:"phone" json:"phone,omitempty"`
	audit.Stamp
}
