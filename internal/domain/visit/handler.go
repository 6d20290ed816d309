package visit

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
	api.POST("/visits", h.ScheduleVisit)
	api.GET("/visits/mine", h.MyVisits)
	api.GET("/visits/:id", h.GetVisit)
	api.DELETE("/visits/:id", h.DeleteVisit)
	api.POST("/visits/:id/complete", h.CompleteVisit)
	api.PUT("/visits/:id/miles", h.SetMiles)
	api.GET("/episodes/:id/visits", h.ListByEpisode)
}

type scheduleRequest struct {
	EpisodeID string     `json:"episode_id"`
	UserID    string     `json:"user_id"`
	PlaceID   *string    `json:"place_id"`
	Date      *time.Time `json:"date"`
	Notes     *string    `json:"notes"`
}

func (h *Handler) ScheduleVisit(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	episodeID, err := uuid.Parse(req.EpisodeID)
	if err != nil {
		return apperr.InvalidInputf("invalid episode id")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperr.InvalidInputf("invalid user id")
	}
	if req.Date == nil {
		return apperr.InvalidInputf("date is required")
	}
	var placeID *uuid.UUID
	if req.PlaceID != nil && *req.PlaceID != "" {
		id, err := uuid.Parse(*req.PlaceID)
		if err != nil {
			return apperr.InvalidInputf("invalid place id")
		}
		placeID = &id
	}

	v, err := h.svc.ScheduleVisit(c.Request().Context(), actorID, ScheduleInput{
		EpisodeID: episodeID,
		UserID:    userID,
		PlaceID:   placeID,
		Date:      *req.Date,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid visit id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), actorID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) MyVisits(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -7), now.AddDate(0, 0, 30)
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.InvalidInputf("invalid from date")
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.InvalidInputf("invalid to date")
		}
		to = t
	}

	items, err := h.svc.MyVisits(c.Request().Context(), actorID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListByEpisode(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	episodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid episode id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByEpisode(c.Request().Context(), actorID, episodeID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type completeRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

func (h *Handler) CompleteVisit(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid visit id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	if err := h.svc.CompleteVisit(c.Request().Context(), actorID, id, req.StartTime, req.EndTime); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}

type milesRequest struct {
	Miles float64 `json:"miles"`
}

func (h *Handler) SetMiles(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid visit id")
	}
	var req milesRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}
	m, err := h.svc.SetMiles(c.Request().Context(), actorID, id, req.Miles)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteVisit(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid visit id")
	}
	if err := h.svc.DeleteVisit(c.Request().Context(), actorID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}
