// Package notify fans state changes out to connected clients over a pub/sub
// bus. Delivery is fire-and-forget: publish failures are logged and never
// surfaced to the caller; retry, if any, is the transport's concern.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// Action tags a message payload.
type Action string

const (
	ActionAssign         Action = "ASSIGN"
	ActionUnassign       Action = "UNASSIGN"
	ActionUpdate         Action = "UPDATE"
	ActionUserAssigned   Action = "USER_ASSIGNED"
	ActionUserUnassigned Action = "USER_UNASSIGNED"
	ActionCreatePlace    Action = "CREATE_PLACE"
	ActionUpdatePlace    Action = "UPDATE_PLACE"
	ActionDeletePlace    Action = "DELETE_PLACE"
	ActionUserUpdate     Action = "USER_UPDATE"
)

// Message is the small tagged structure clients receive.
type Message struct {
	ActionType Action     `json:"actionType"`
	PatientID  *uuid.UUID `json:"patientId,omitempty"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	EpisodeID  *uuid.UUID `json:"episodeId,omitempty"`
	PlaceID    *uuid.UUID `json:"placeId,omitempty"`
	// Title and Body make the message a user-visible alert. Empty on
	// silent, data-only messages.
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// Publisher is the port the domain layer depends on.
type Publisher interface {
	Publish(ctx context.Context, channel string, msg Message)
}

// OrgChannel is the organization-wide channel.
func OrgChannel(orgID uuid.UUID) string {
	return orgID.String()
}

// UserAssignmentChannel carries per-user patient-assignment events.
func UserAssignmentChannel(userID uuid.UUID) string {
	return userID.String() + "_assignedPatients"
}

// EpisodeChannel carries care-team broadcasts for one episode.
func EpisodeChannel(episodeID uuid.UUID) string {
	return "episode_" + episodeID.String()
}

func ref(id uuid.UUID) *uuid.UUID { return &id }

// Assign is the silent, data-only patient-assignment message.
func Assign(patientID uuid.UUID) Message {
	return Message{ActionType: ActionAssign, PatientID: ref(patientID)}
}

// AssignAlert is the user-visible variant of Assign.
func AssignAlert(patientID uuid.UUID, title, body string) Message {
	return Message{ActionType: ActionAssign, PatientID: ref(patientID), Title: title, Body: body}
}

// Unassign tells a user a patient was taken off their list.
func Unassign(patientID uuid.UUID) Message {
	return Message{ActionType: ActionUnassign, PatientID: ref(patientID)}
}

// Update tells an already-assigned user that episode details changed.
func Update(patientID uuid.UUID) Message {
	return Message{ActionType: ActionUpdate, PatientID: ref(patientID)}
}

// UserAssigned announces a new care-team member on the episode channel.
func UserAssigned(episodeID, userID uuid.UUID) Message {
	return Message{ActionType: ActionUserAssigned, EpisodeID: ref(episodeID), UserID: ref(userID)}
}

// UserUnassigned announces a removed care-team member on the episode channel.
func UserUnassigned(episodeID, userID uuid.UUID) Message {
	return Message{ActionType: ActionUserUnassigned, EpisodeID: ref(episodeID), UserID: ref(userID)}
}

// PlaceEvent builds a CREATE_PLACE/UPDATE_PLACE/DELETE_PLACE message.
func PlaceEvent(action Action, placeID uuid.UUID) Message {
	return Message{ActionType: action, PlaceID: ref(placeID)}
}

// UserUpdate announces a profile change on the organization channel.
func UserUpdate(userID uuid.UUID) Message {
	return Message{ActionType: ActionUserUpdate, UserID: ref(userID)}
}
