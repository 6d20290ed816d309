package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/user"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/pkg/pagination"
)

type resolver interface {
	ResolveAdminGrant(ctx context.Context, userID uuid.UUID) (*user.OrganizationAccess, error)
	RequireOrgPatient(ctx context.Context, orgID, patientID uuid.UUID) error
}

// EpisodeOpener creates the patient's initial active episode so the
// one-active-episode invariant holds from the moment the patient exists.
type EpisodeOpener interface {
	OpenActive(ctx context.Context, patientID, actorID uuid.UUID) error
}

type ServiceDeps struct {
	Patients PatientRepository
	Mappings MappingRepository
	Episodes EpisodeOpener
	Resolver resolver
	Begin    db.BeginFunc
}

type Service struct {
	patients PatientRepository
	mappings MappingRepository
	episodes EpisodeOpener
	resolver resolver
	begin    db.BeginFunc
}

func NewService(d ServiceDeps) *Service {
	if d.Begin == nil {
		d.Begin = db.Begin
	}
	return &Service{
		patients: d.Patients,
		mappings: d.Mappings,
		episodes: d.Episodes,
		resolver: d.Resolver,
		begin:    d.Begin,
	}
}

type CreateInput struct {
	FirstName string
	LastName  string
	BirthDate *time.Time
	Gender    *string
	Address   *string
}

// CreatePatient creates the patient, the mapping to the acting admin's
// organization, and an initial active episode, in one transaction.
func (s *Service) CreatePatient(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Patient, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.InvalidInputf("first_name and last_name are required")
	}

	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p := &Patient{
		ID:        uuid.New(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: in.BirthDate,
		Gender:    in.Gender,
		Address:   in.Address,
		Stamp:     audit.NewStamp(actorID),
	}
	if err := s.patients.Create(txCtx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	m := &OrgMapping{
		ID:             uuid.New(),
		OrganizationID: grant.OrganizationID,
		PatientID:      p.ID,
		Stamp:          audit.NewStamp(actorID),
	}
	if err := s.mappings.Create(txCtx, m); err != nil {
		return nil, fmt.Errorf("create mapping: %w", err)
	}

	if err := s.episodes.OpenActive(txCtx, p.ID, actorID); err != nil {
		return nil, fmt.Errorf("open episode: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// GetPatient returns a patient visible to the acting admin's organization.
func (s *Service) GetPatient(ctx context.Context, actorID, patientID uuid.UUID) (*Patient, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.RequireOrgPatient(ctx, grant.OrganizationID, patientID); err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, apperr.NotFound("PATIENT_NOT_FOUND", err)
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, actorID uuid.UUID, includeArchived bool, sort pagination.Sort, limit, offset int) ([]*Patient, int, error) {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.patients.ListByOrganization(ctx, grant.OrganizationID, includeArchived, sort, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, actorID uuid.UUID, p *Patient) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.resolver.RequireOrgPatient(ctx, grant.OrganizationID, p.ID); err != nil {
		return err
	}
	if p.FirstName == "" || p.LastName == "" {
		return apperr.InvalidInputf("first_name and last_name are required")
	}
	p.Touch(actorID)
	if err := s.patients.Update(ctx, p); err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

// SetArchived flips the archived flag without touching episodes or visits.
func (s *Service) SetArchived(ctx context.Context, actorID, patientID uuid.UUID, archived bool) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.resolver.RequireOrgPatient(ctx, grant.OrganizationID, patientID); err != nil {
		return err
	}
	return s.patients.SetArchived(ctx, patientID, archived, actorID)
}

// DeletePatient soft-deletes the patient row and its mapping to the acting
// organization. Episodes and visits are not cascaded; visit cleanup happens
// through unassignment, and historical episodes stay queryable.
func (s *Service) DeletePatient(ctx context.Context, actorID, patientID uuid.UUID) error {
	grant, err := s.resolver.ResolveAdminGrant(ctx, actorID)
	if err != nil {
		return err
	}
	if err := s.resolver.RequireOrgPatient(ctx, grant.OrganizationID, patientID); err != nil {
		return err
	}

	p, err := s.patients.GetByIDIncludingDeleted(ctx, patientID)
	if err != nil {
		return apperr.NotFound("PATIENT_NOT_FOUND", err)
	}
	if p.Deleted() {
		return nil
	}

	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.patients.SoftDelete(txCtx, patientID, actorID); err != nil {
		return fmt.Errorf("soft delete patient: %w", err)
	}
	if _, err := s.mappings.SoftDeleteByPatient(txCtx, grant.OrganizationID, patientID, actorID); err != nil {
		return fmt.Errorf("soft delete mapping: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
