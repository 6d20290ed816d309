package organization

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/apperr"
	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/organizations", h.CreateOrganization)
	api.GET("/organizations", h.ListOrganizations)
	api.GET("/organizations/current", h.GetOrganization)
	api.PUT("/organizations/current", h.UpdateOrganization)
}

type orgRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

func (h *Handler) CreateOrganization(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var req orgRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	o, err := h.svc.CreateOrganization(c.Request().Context(), actorID, CreateInput{
		Name: req.Name, Address: req.Address, Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrganization(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	o, err := h.svc.GetOrganization(c.Request().Context(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrganizations(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListOrganizations(c.Request().Context(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateOrganization(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var req orgRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	o, err := h.svc.UpdateOrganization(c.Request().Context(), actorID, CreateInput{
		Name: req.Name, Address: req.Address, Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}
