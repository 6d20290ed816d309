package episode

import (
	"context"

	"github.com/google/uuid"
)

type EpisodeRepository interface {
	Create(ctx context.Context, e *Episode) error
	GetByID(ctx context.Context, id uuid.UUID) (*Episode, error)
	// ActiveByPatient returns all active, non-deleted episodes of the
	// patient. The orchestrator requires exactly one.
	ActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Episode, error)
	AttachPhysician(ctx context.Context, episodeID, physicianID, actorID uuid.UUID) error
	Close(ctx context.Context, episodeID, actorID uuid.UUID) error
}

type AccessRepository interface {
	Create(ctx context.Context, a *Access) error
	// ListByOrgEpisode returns live accesses only.
	ListByOrgEpisode(ctx context.Context, orgID, episodeID uuid.UUID) ([]*Access, error)
	// ListByOrgEpisodeIncludingDeleted also returns soft-deleted rows so the
	// orchestrator can resurrect them instead of creating duplicates.
	ListByOrgEpisodeIncludingDeleted(ctx context.Context, orgID, episodeID uuid.UUID) ([]*Access, error)
	Resurrect(ctx context.Context, id, actorID uuid.UUID) error
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
	SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error)
	HasActiveAccess(ctx context.Context, orgID, episodeID, userID uuid.UUID) (bool, error)
}
