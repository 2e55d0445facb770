package domain

import "time"

type ResourceKind string

const (
	KindFile      ResourceKind = "file"
	KindDirectory ResourceKind = "directory"
)

func (k ResourceKind) Valid() bool {
	return k == KindFile || k == KindDirectory
}

// Resource is a file or directory of a room's workspace tree.
// Content is nil when the client never sent one.
type Resource struct {
	ID        string       `json:"id"`
	Kind      ResourceKind `json:"kind"`
	Name      string       `json:"name"`
	ParentID  string       `json:"parentId,omitempty"`
	Content   *string      `json:"content,omitempty"`
	RoomID    RoomID       `json:"roomId"`
	Owner     string       `json:"owner"`
	Version   uint64       `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (r *Resource) Clone() Resource {
	out := *r
	if r.Content != nil {
		c := *r.Content
		out.Content = &c
	}
	return out
}

// Permission is the right set a non-owner holds on a resource.
type Permission struct {
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

var FullPermission = Permission{CanEdit: true, CanDelete: true}
