package orch

import (
	"encoding/json"
	"time"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
)

// Requests decoded by the transport adapter.

type JoinRequest struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
}

type CreateResourceRequest struct {
	ID       string              `json:"id"`
	Kind     domain.ResourceKind `json:"kind"`
	Name     string              `json:"name"`
	ParentID string              `json:"parentId"`
	Content  *string             `json:"content"`
}

func (r CreateResourceRequest) action() string {
	if r.Kind == domain.KindDirectory {
		return app.EventDirectoryCreated
	}
	return app.EventFileCreated
}

type UpdateResourceRequest struct {
	ID      string  `json:"id"`
	FileID  string  `json:"fileId"`
	Content *string `json:"content"`
}

func (r UpdateResourceRequest) resourceID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.FileID
}

type DeleteResourceRequest struct {
	ID     string              `json:"id"`
	FileID string              `json:"fileId"`
	Kind   domain.ResourceKind `json:"kind"`
}

func (r DeleteResourceRequest) resourceID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.FileID
}

func (r DeleteResourceRequest) action() string {
	if r.Kind == domain.KindDirectory {
		return app.EventDirectoryDeleted
	}
	return app.EventFileDeleted
}

type PermissionRequest struct {
	ResourceID  string `json:"resourceId"`
	RequestType string `json:"requestType"`
	Message     string `json:"message"`
}

type GrantRequest struct {
	ResourceID string `json:"resourceId"`
	Username   string `json:"username"`
	CanEdit    bool   `json:"canEdit"`
	CanDelete  bool   `json:"canDelete"`
}

type RevokeRequest struct {
	ResourceID string `json:"resourceId"`
	Username   string `json:"username"`
}

type PresenceRequest struct {
	CursorPosition int               `json:"cursorPosition"`
	Selection      *domain.Selection `json:"selection"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type DrawingSyncRequest struct {
	Target core.SessionID  `json:"target"`
	Data   json.RawMessage `json:"data"`
}

type DrawingUpdateRequest struct {
	Snapshot json.RawMessage `json:"snapshot"`
}

// Outbound payloads.

type UserEvent struct {
	User domain.User `json:"user"`
}

type ResourceEvent struct {
	Resource domain.Resource `json:"resource"`
}

type ResourceUpdated struct {
	ResourceID string    `json:"resourceId"`
	Content    *string   `json:"content"`
	Version    uint64    `json:"version"`
	UpdatedBy  string    `json:"updatedBy"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ResourceDeleted struct {
	ResourceID string   `json:"resourceId"`
	Removed    []string `json:"removed"`
	DeletedBy  string   `json:"deletedBy"`
}

type PermissionRequested struct {
	ResourceID  string `json:"resourceId"`
	Requester   string `json:"requester"`
	RequestType string `json:"requestType"`
	Message     string `json:"message,omitempty"`
}

type PermissionUpdated struct {
	ResourceID string            `json:"resourceId"`
	Perms      domain.Permission `json:"perms"`
	Owner      string            `json:"owner"`
}

type PermissionRevoked struct {
	ResourceID string `json:"resourceId"`
	Owner      string `json:"owner"`
}

// Failure is the payload of every direct error notification.
type Failure struct {
	Action     string        `json:"action"`
	ResourceID string        `json:"resourceId,omitempty"`
	RoomID     domain.RoomID `json:"roomId,omitempty"`
	Username   string        `json:"username,omitempty"`
	Reason     string        `json:"reason"`
}

type MessageReceived struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	From    string    `json:"from"`
	SentAt  time.Time `json:"sentAt"`
}

type DrawingRequested struct {
	Requester core.SessionID `json:"requester"`
	From      string         `json:"from"`
}

type DrawingSync struct {
	Data json.RawMessage `json:"data"`
	From string          `json:"from"`
}

type DrawingUpdated struct {
	Snapshot json.RawMessage `json:"snapshot"`
	From     string          `json:"from"`
}
