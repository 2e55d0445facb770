package domain

type RoomID string

// ValidateRoomID accepts any non-empty id up to MaxRoomIDLen bytes.
func ValidateRoomID(id RoomID) error {
	if len(id) == 0 || len(id) > MaxRoomIDLen {
		return ErrInvalidRoom
	}
	return nil
}

type RoomInfo struct {
	ID          RoomID `json:"id"`
	MemberCount int    `json:"memberCount"`
}
