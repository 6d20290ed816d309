package report

import (
	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/audit"
)

// Report maps to the report table: a clinician's write-up for an episode,
// usually covering a run of visits.
type Report struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EpisodeID uuid.UUID `db:"episode_id" json:"episode_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Body      *string   `db:"body" json:"body,omitempty"`
	audit.Stamp
}

// Item maps to the report_item table: one visit referenced by a report.
type Item struct {
	ID       uuid.UUID `db:"id" json:"id"`
	ReportID uuid.UUID `db:"report_id" json:"report_id"`
	VisitID  uuid.UUID `db:"visit_id" json:"visit_id"`
	Note     *string   `db:"note" json:"note,omitempty"`
	audit.Stamp
}
