package place

import (
	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Place maps to the place table: a location clinicians visit, such as a
// facility or a patient's home. Changes are broadcast on the organization
// channel so mobile clients can refresh their map data.
type Place struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Address        *string   `db:"address" json:"address,omitempty"`
	Latitude       *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64  `db:"longitude" json:"longitude,omitempty"`
	audit.Stamp
}
