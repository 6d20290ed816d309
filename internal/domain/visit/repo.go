package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	Complete(ctx context.Context, id uuid.UUID, start, end *time.Time, actorID uuid.UUID) error
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
	ListByEpisode(ctx context.Context, episodeID uuid.UUID, limit, offset int) ([]*Visit, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, fromEpoch, toEpoch int64) ([]*Visit, error)
	// DeleteFutureIncomplete hard-deletes the user's scheduled, uncompleted
	// visits for the episode on or after the cutoff day. Runs on unassignment.
	DeleteFutureIncomplete(ctx context.Context, episodeID, userID uuid.UUID, cutoff time.Time) (int, error)
	// SoftDeleteByUser backs the user-deletion cascade.
	SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error)
}

type MilesRepository interface {
	Upsert(ctx context.Context, m *Miles) error
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Miles, error)
}
