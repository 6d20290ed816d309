package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/platform/db"
)

// VisitSource lets report items be validated against real visits.
type VisitSource interface {
	BelongsToUser(ctx context.Context, visitID, userID uuid.UUID) (bool, error)
}

type ServiceDeps struct {
	Reports Repository
	Items   ItemRepository
	Visits  VisitSource
	Begin   db.BeginFunc
}

// Service manages reports. Reports are personal: a clinician writes, updates
// and deletes only their own.
type Service struct {
	reports Repository
	items   ItemRepository
	visits  VisitSource
	begin   db.BeginFunc
}

func NewService(d ServiceDeps) *Service {
	if d.Begin == nil {
		d.Begin = db.Begin
	}
	return &Service{reports: d.Reports, items: d.Items, visits: d.Visits, begin: d.Begin}
}

type ItemInput struct {
	VisitID uuid.UUID
	Note    *string
}

type CreateInput struct {
	EpisodeID uuid.UUID
	Title     string
	Body      *string
	Items     []ItemInput
}

// CreateReport writes the report and its visit references in one transaction.
// Every referenced visit must belong to the author.
func (s *Service) CreateReport(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Report, error) {
	if in.Title == "" {
		return nil, apperr.InvalidInputf("title is required")
	}
	for _, it := range in.Items {
		ok, err := s.visits.BelongsToUser(ctx, it.VisitID, actorID)
		if err != nil {
			return nil, fmt.Errorf("check visit: %w", err)
		}
		if !ok {
			return nil, apperr.InvalidInputf("visit %s does not belong to the author", it.VisitID)
		}
	}

	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rp := &Report{
		ID:        uuid.New(),
		EpisodeID: in.EpisodeID,
		UserID:    actorID,
		Title:     in.Title,
		Body:      in.Body,
		Stamp:     audit.NewStamp(actorID),
	}
	if err := s.reports.Create(txCtx, rp); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	for _, it := range in.Items {
		item := &Item{
			ID:       uuid.New(),
			ReportID: rp.ID,
			VisitID:  it.VisitID,
			Note:     it.Note,
			Stamp:    audit.NewStamp(actorID),
		}
		if err := s.items.Create(txCtx, item); err != nil {
			return nil, fmt.Errorf("create report item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rp, nil
}

func (s *Service) GetReport(ctx context.Context, actorID, reportID uuid.UUID) (*Report, []*Item, error) {
	rp, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, nil, apperr.NotFound("REPORT_NOT_FOUND", err)
	}
	items, err := s.items.ListByReport(ctx, reportID)
	if err != nil {
		return nil, nil, fmt.Errorf("list items: %w", err)
	}
	return rp, items, nil
}

func (s *Service) ListByEpisode(ctx context.Context, episodeID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return s.reports.ListByEpisode(ctx, episodeID, limit, offset)
}

func (s *Service) UpdateReport(ctx context.Context, actorID, reportID uuid.UUID, title string, body *string) error {
	rp, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return apperr.NotFound("REPORT_NOT_FOUND", err)
	}
	if rp.UserID != actorID {
		return apperr.AccessDeniedf("report %s does not belong to user %s", reportID, actorID)
	}
	if title == "" {
		return apperr.InvalidInputf("title is required")
	}

	rp.Title = title
	rp.Body = body
	rp.Touch(actorID)
	if err := s.reports.Update(ctx, rp); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}

func (s *Service) DeleteReport(ctx context.Context, actorID, reportID uuid.UUID) error {
	rp, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return apperr.NotFound("REPORT_NOT_FOUND", err)
	}
	if rp.UserID != actorID {
		return apperr.AccessDeniedf("report %s does not belong to user %s", reportID, actorID)
	}
	return s.reports.SoftDelete(ctx, reportID, actorID)
}
