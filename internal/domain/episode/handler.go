package episode

import (
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/patients/:id/assignments", h.UpdateAssignments)
	api.GET("/patients/:id/team", h.GetTeam)
}

type assignmentRequest struct {
	Users       []string `json:"users"`
	PhysicianID *string  `json:"physicianId"`
}

func (h *Handler) UpdateAssignments(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid patient id")
	}
	var req assignmentRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput(err)
	}

	userIDs := make([]uuid.UUID, 0, len(req.Users))
	for _, raw := range req.Users {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.InvalidInputf("invalid user id %q", raw)
		}
		userIDs = append(userIDs, id)
	}
	var physicianID *uuid.UUID
	if req.PhysicianID != nil && *req.PhysicianID != "" {
		id, err := uuid.Parse(*req.PhysicianID)
		if err != nil {
			return apperr.InvalidInputf("invalid physician id")
		}
		physicianID = &id
	}

	err = h.svc.UpdateAssignments(c.Request().Context(), actorID, AssignmentRequest{
		PatientID:   patientID,
		UserIDs:     userIDs,
		PhysicianID: physicianID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, apperr.OK)
}

type teamResponse struct {
	Episode *Episode  `json:"episode"`
	Team    []*Access `json:"team"`
}

func (h *Handler) GetTeam(c echo.Context) error {
	actorID, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InvalidInputf("invalid patient id")
	}
	ep, team, err := h.svc.ListTeam(c.Request().Context(), actorID, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, teamResponse{Episode: ep, Team: team})
}
