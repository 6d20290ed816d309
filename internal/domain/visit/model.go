package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Visit maps to the visit table: one clinician seeing one patient on one day.
// The day is bucketed as MidnightEpoch, the Unix timestamp of UTC midnight of
// the scheduled date, which makes "future visits" a simple range comparison.
type Visit struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	EpisodeID     uuid.UUID  `db:"episode_id" json:"episode_id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	PlaceID       *uuid.UUID `db:"place_id" json:"place_id,omitempty"`
	MidnightEpoch int64      `db:"midnight_epoch" json:"midnight_epoch"`
	StartTime     *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime       *time.Time `db:"end_time" json:"end_time,omitempty"`
	Completed     bool       `db:"completed" json:"completed"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	audit.Stamp
}

// Miles maps to the visit_miles table: the drive recorded for one visit.
type Miles struct {
	ID      uuid.UUID `db:"id" json:"id"`
	VisitID uuid.UUID `db:"visit_id" json:"visit_id"`
	Miles   float64   `db:"miles" json:"miles"`
	audit.Stamp
}

// MidnightEpoch buckets a time into its UTC calendar day.
func MidnightEpoch(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
