package patient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)
	api.POST("/patients/:id/archive", h.ArchivePatient)
	api.POST("/patients/:id/unarchive", h.UnarchivePatient)
}

type patientRequest struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date"`
	Gender    *string    `json:"gender"`
	Address   *string    `json:"address"`
}

func (h *Handler) CreatePatient(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}

	p, err := h.svc.CreatePatient(c.Request().Context(), actorID, CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		Address:   req.Address,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid patient id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// patientSortKeys is the allow-list of client-facing sort keys. Anything
// outside it is rejected rather than passed through to SQL.
var patientSortKeys = map[string]string{
	"first_name": "p.first_name",
	"last_name":  "p.last_name",
	"birth_date": "p.birth_date",
	"created_at": "p.created_at",
}

func (h *Handler) ListPatients(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	sort, ok := pagination.SortFromContext(c, patientSortKeys, "last_name")
	if !ok {
		return apperr.InvalidInputf("unknown sort key %q", c.QueryParam("sort"))
	}
	includeArchived := c.QueryParam("include_archived") == "true"
	items, total, err := h.svc.ListPatients(c.Request().Context(), actorID, includeArchived, sort, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid patient id")
	}
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}

	p := &Patient{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		Address:   req.Address,
	}
	if err := h.svc.UpdatePatient(c.Request().Context(), actorID, p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid patient id")
	}
	if err := h.svc.DeletePatient(c.Request().Context(), actorID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}

func (h *Handler) ArchivePatient(c echo.Context) error {
	return h.setArchived(c, true)
}

func (h *Handler) UnarchivePatient(c echo.Context) error {
	return h.setArchived(c, false)
}

func (h *Handler) setArchived(c echo.Context, archived bool) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid patient id")
	}
	if err := h.svc.SetArchived(c.Request().Context(), actorID, id, archived); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}
