// Package audit holds the who/when stamp carried by every mutable entity.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Stamp records creation, last update and logical deletion. An entity is
// active iff DeletedAt is nil; default queries exclude deleted rows.
type Stamp struct {
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	CreatedBy uuid.UUID  `db:"created_by" json:"created_by"`
	UpdatedBy uuid.UUID  `db:"updated_by" json:"updated_by"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Deleted reports whether the entity is logically deleted.
func (s *Stamp) Deleted() bool { return s.DeletedAt != nil }

// NewStamp initializes a stamp for a row created now by actor.
func NewStamp(actor uuid.UUID) Stamp {
	now := time.Now().UTC()
	return Stamp{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
}

// Touch marks an update by actor.
func (s *Stamp) Touch(actor uuid.UUID) {
	s.UpdatedAt = time.Now().UTC()
	s.UpdatedBy = actor
}

// MarkDeleted stamps the logical deletion. No-op when already deleted, which
// keeps repeat deletes idempotent.
func (s *Stamp) MarkDeleted(actor uuid.UUID) {
	if s.DeletedAt != nil {
		return
	}
	now := time.Now().UTC()
	s.DeletedAt = &now
	s.Touch(actor)
}

// Restore clears the logical deletion, resurrecting the row.
func (s *Stamp) Restore(actor uuid.UUID) {
	s.DeletedAt = nil
	s.Touch(actor)
}
