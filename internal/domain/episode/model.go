package episode

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Episode maps to the episode table: one bounded period of care for one
// patient. At most one active episode may exist per patient; the invariant
// is maintained by callers, not the schema, and the orchestrator fails
// closed when it does not hold.
type Episode struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	PhysicianID   *uuid.UUID `db:"physician_id" json:"physician_id,omitempty"`
	ClinicianName *string    `db:"clinician_name" json:"clinician_name,omitempty"`
	StartDate     *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	audit.Stamp
}

// Access maps to the user_episode_access table: this user, acting under this
// organization, may see and act on this episode and, transitively, its
// patient. Soft-deleted rows are resurrected on re-assignment rather than
// replaced.
type Access struct {
	ID             uuid.UUID `db:"id" json:"id"`
	EpisodeID      uuid.UUID `db:"episode_id" json:"episode_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Role           string    `db:"role" json:"role"`
	audit.Stamp
}

// DefaultRole is assigned to newly created care-team accesses.
const DefaultRole = "clinician"
