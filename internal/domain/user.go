// Package domain contains entity without logic, just meta-data
package domain

import "time"

const (
	MaxUsernameLen = 36
	MaxRoomIDLen   = 64
)

type UserID string

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Selection is a half-open text range inside the resource being edited.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type User struct {
	ID             UserID     `json:"id"`
	Username       string     `json:"username"`
	RoomID         RoomID     `json:"roomId"`
	Status         Status     `json:"status"`
	CursorPosition int        `json:"cursorPosition"`
	Typing         bool       `json:"typing"`
	Selection      *Selection `json:"selection,omitempty"`
	JoinedAt       time.Time  `json:"joinedAt"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, username string, room RoomID) (*User, error) {
	if err := ValidateRoomID(room); err != nil {
		return nil, err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return &User{
		ID:       id,
		Username: username,
		RoomID:   room,
		Status:   StatusOnline,
		JoinedAt: time.Now().UTC(),
	}, nil
}

func ValidateUsername(username string) error {
	if len(username) == 0 || len(username) > MaxUsernameLen {
		return ErrInvalidUsername
	}
	return nil
}

// SetCursor clamps negative positions to zero.
func (u *User) SetCursor(pos int, sel *Selection) {
	if pos < 0 {
		pos = 0
	}
	u.CursorPosition = pos
	if sel != nil {
		s := *sel
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End < s.Start {
			s.End = s.Start
		}
		u.Selection = &s
	} else {
		u.Selection = nil
	}
}

// Clone returns a copy that does not share the selection pointer.
func (u *User) Clone() User {
	out := *u
	if u.Selection != nil {
		s := *u.Selection
		out.Selection = &s
	}
	return out
}
