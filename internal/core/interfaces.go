package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/cowork/internal/domain"
)

// Envelope is the unit moved by the broadcast router.
type Envelope struct {
	Event   string `json:"event"`
	AckID   *int64 `json:"ackId,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

func Encode(event string, payload any) (Frame, error) {
	return json.Marshal(Envelope{Event: event, Payload: payload})
}

func EncodeAck(event string, ackID int64, result AckResult) (Frame, error) {
	return json.Marshal(Envelope{Event: event, AckID: &ackID, Payload: result})
}

// AckResult is the single reply to a request that carried an ack id.
type AckResult struct {
	OK          bool             `json:"ok"`
	Reason      string           `json:"reason,omitempty"`
	User        *domain.User     `json:"user,omitempty"`
	UsersInRoom []domain.User    `json:"usersInRoom,omitempty"`
	Resource    *domain.Resource `json:"resource,omitempty"`
	Removed     []string         `json:"removed,omitempty"`
	SavedAt     *time.Time       `json:"savedAt,omitempty"`
	Path        string           `json:"path,omitempty"`
}

// Ack is the acknowledgment continuation of one inbound event.
// A nil Ack means the caller did not ask for a reply.
type Ack func(AckResult)

// SaveResult describes where content ended up.
type SaveResult struct {
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContentStore persists file contents outside the process.
type ContentStore interface {
	Save(ctx context.Context, resourceID, content string) (SaveResult, error)
	Delete(ctx context.Context, resourceID string) error
}
