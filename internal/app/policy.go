package app

import (
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

type Policy interface {
	OnBackPressure(room domain.RoomID, sid core.SessionID) BackpressureAction
}

// SimplePolicy kicks a member whose queue overflowed.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, core.SessionID) BackpressureAction {
	return KickMember
}

// DropPolicy only loses the frame.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomID, core.SessionID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the config value to a policy; unknown names kick.
func PolicyByName(name string) Policy {
	if name == "drop" {
		return DropPolicy{}
	}
	return SimplePolicy{}
}
