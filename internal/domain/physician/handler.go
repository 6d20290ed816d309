package physician

import (
	"net/http"

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
	api.POST("/physicians", h.CreatePhysician)
	api.GET("/physicians", h.ListPhysicians)
	api.GET("/physicians/:id", h.GetPhysician)
	api.PUT("/physicians/:id", h.UpdatePhysician)
	api.DELETE("/physicians/:id", h.DeletePhysician)
}

type physicianRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	NPI       *string `json:"npi"`
	Phone     *string `json:"phone"`
	Fax       *string `json:"fax"`
}

func (h *Handler) CreatePhysician(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var req physicianRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	p, err := h.svc.CreatePhysician(c.Request().Context(), actorID, CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		NPI:       req.NPI,
		Phone:     req.Phone,
		Fax:       req.Fax,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPhysician(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid physician id")
	}
	p, err := h.svc.GetPhysician(c.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPhysicians(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPhysicians(c.Request().Context(), actorID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePhysician(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid physician id")
	}
	var req physicianRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	p := &Physician{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		NPI:       req.NPI,
		Phone:     req.Phone,
		Fax:       req.Fax,
	}
	if err := h.svc.UpdatePhysician(c.Request().Context(), actorID, p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}

func (h *Handler) DeletePhysician(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid physician id")
	}
	if err := h.svc.DeletePhysician(c.Request().Context(), actorID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}
