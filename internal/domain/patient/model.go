package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Patient maps to the patient table. Patients are shared between
// organizations through explicit organization_patients_mapping rows.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender    *string    `db:"gender" json:"gender,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	Archived  bool       `db:"archived" json:"archived"`
	audit.Stamp
}

// OrgMapping maps to the organization_patients_mapping table, linking an
// organization to a patient it coordinates care for.
type OrgMapping struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	audit.Stamp
}
