package report

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
	api.POST("/reports", h.CreateReport)
	api.GET("/reports/:id", h.GetReport)
	api.PUT("/reports/:id", h.UpdateReport)
	api.DELETE("/reports/:id", h.DeleteReport)
	api.GET("/episodes/:id/reports", h.ListByEpisode)
}

type itemRequest struct {
	VisitID string  `json:"visit_id"`
	Note    *string `json:"note"`
}

type reportRequest struct {
	EpisodeID string        `json:"episode_id"`
	Title     string        `json:"title"`
	Body      *string       `json:"body"`
	Items     []itemRequest `json:"items"`
}

func (h *Handler) CreateReport(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	episodeID, err := uuid.Parse(req.EpisodeID)
	if err != nil {
		return apperr.InvalidInputf("invalid episode id")
	}
	items := make([]ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		visitID, err := uuid.Parse(it.VisitID)
		if err != nil {
			return apperr.InvalidInputf("invalid visit id %q", it.VisitID)
		}
		items = append(items, ItemInput{VisitID: visitID, Note: it.Note})
	}

	rp, err := h.svc.CreateReport(c.Request().Context(), actorID, CreateInput{
		EpisodeID: episodeID,
		Title:     req.Title,
		Body:      req.Body,
		Items:     items,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rp)
}

type reportResponse struct {
	Report *Report `json:"report"`
	Items  []*Item `json:"items"`
}

func (h *Handler) GetReport(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid report id")
	}
	rp, items, err := h.svc.GetReport(c.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reportResponse{Report: rp, Items: items})
}

func (h *Handler) ListByEpisode(c echo.Context) error {
	if _, err := auth.MustActor(c); err != nil {
		return err
	}
	episodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid episode id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByEpisode(c.Request().Context(), episodeID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateReportRequest struct {
	Title string  `json:"title"`
	Body  *string `json:"body"`
}

func (h *Handler) UpdateReport(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid report id")
	}
	var req updateReportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	if err := h.svc.UpdateReport(c.Request().Context(), actorID, id, req.Title, req.Body); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}

func (h *Handler) DeleteReport(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid report id")
	}
	if err := h.svc.DeleteReport(c.Request().Context(), actorID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}
