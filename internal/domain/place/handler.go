package place

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
	api.POST("/places", h.CreatePlace)
	api.GET("/places", h.ListPlaces)
	api.GET("/places/:id", h.GetPlace)
	api.PUT("/places/:id", h.UpdatePlace)
	api.DELETE("/places/:id", h.DeletePlace)
}

type placeRequest struct {
	Name      string   `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *Handler) CreatePlace(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var req placeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	p, err := h.svc.CreatePlace(c.Request().Context(), actorID, CreateInput{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPlace(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid place id")
	}
	p, err := h.svc.GetPlace(c.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPlaces(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPlaces(c.Request().Context(), actorID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePlace(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid place id")
	}
	var req placeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	p := &Place{
		ID:        id,
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.svc.UpdatePlace(c.Request().Context(), actorID, p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}

func (h *Handler) DeletePlace(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid place id")
	}
	if err := h.svc.DeletePlace(c.Request().Context(), actorID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}
