package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
	ListByEpisode(ctx context.Context, episodeID uuid.UUID, limit, offset int) ([]*Report, int, error)
	// SoftDeleteByUser backs the user-deletion cascade.
	SoftDeleteByUser(ctx context.Context, userID, actorID uuid.UUID) (int, error)
}

type ItemRepository interface {
	Create(ctx context.Context, it *Item) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]*Item, error)
	SoftDelete(ctx context.Context, id, actorID uuid.UUID) error
}
