package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestChannelNames(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	episodeID := uuid.New()

	if got := OrgChannel(orgID); got != orgID.String() {
		t.Errorf("org channel: %s", got)
	}
	if got := UserAssignmentChannel(userID); got != userID.String()+"_assignedPatients" {
		t.Errorf("user channel: %s", got)
	}
	if got := EpisodeChannel(episodeID); got != "episode_"+episodeID.String() {
		t.Errorf("episode channel: %s", got)
	}
}

func TestMessageJSONShape(t *testing.T) {
	patientID := uuid.New()
	raw, err := json.Marshal(Assign(patientID))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["actionType"] != "ASSIGN" {
		t.Errorf("actionType: %v", decoded["actionType"])
	}
	if decoded["patientId"] != patientID.String() {
		t.Errorf("patientId: %v", decoded["patientId"])
	}
	if _, ok := decoded["title"]; ok {
		t.Error("silent message must omit title")
	}
}

func TestAssignAlertCarriesTitleAndBody(t *testing.T) {
	msg := AssignAlert(uuid.New(), "New patient", "A patient was assigned to you")
	if msg.Title == "" || msg.Body == "" {
		t.Error("alert variant must carry title and body")
	}
	if msg.ActionType != ActionAssign {
		t.Errorf("unexpected action: %s", msg.ActionType)
	}
}

func TestQueue_FlushAfterCommit(t *testing.T) {
	pub := NewMemoryPublisher()
	q := NewQueue(pub)

	userID := uuid.New()
	q.Add(UserAssignmentChannel(userID), Assign(uuid.New()))
	q.Add(UserAssignmentChannel(userID), Unassign(uuid.New()))

	if len(pub.Published()) != 0 {
		t.Fatal("nothing may publish before Flush")
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 staged, got %d", q.Len())
	}

	q.Flush(context.Background())
	got := pub.Published()
	if len(got) != 2 {
		t.Fatalf("expected 2 published, got %d", len(got))
	}
	if got[0].Message.ActionType != ActionAssign || got[1].Message.ActionType != ActionUnassign {
		t.Error("messages must flush in order")
	}
	if q.Len() != 0 {
		t.Error("queue must be empty after Flush")
	}
}

func TestQueue_Discard(t *testing.T) {
	pub := NewMemoryPublisher()
	q := NewQueue(pub)
	q.Add("c", UserUpdate(uuid.New()))
	q.Discard()
	q.Flush(context.Background())
	if len(pub.Published()) != 0 {
		t.Error("discarded messages must not publish")
	}
}

func TestMemoryPublisher_ByChannel(t *testing.T) {
	pub := NewMemoryPublisher()
	pub.Publish(context.Background(), "a", UserUpdate(uuid.New()))
	pub.Publish(context.Background(), "b", UserUpdate(uuid.New()))
	pub.Publish(context.Background(), "a", UserUpdate(uuid.New()))

	if got := len(pub.ByChannel("a")); got != 2 {
		t.Errorf("expected 2 on channel a, got %d", got)
	}
	pub.Reset()
	if len(pub.Published()) != 0 {
		t.Error("expected empty after Reset")
	}
}
