package orch

import (
	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join binds sid to req.RoomID. A connection already in a room is moved
// and its old room sees it leave.
func (o *Orchestrator) Join(sid core.SessionID, req JoinRequest, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	user, prev, err := o.Registry.Join(sid, req.RoomID, req.Username)
	if err != nil {
		o.fail(sid, Failure{Action: app.EventJoinRoom, RoomID: req.RoomID, Username: req.Username}, err, ack)
		return
	}
	if prev != nil {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(prev.RoomID)).Msg("moved out of room")
		o.toRoom(prev.RoomID, sid, app.EventUserLeft, UserEvent{User: *prev})
	}
	o.toRoom(user.RoomID, sid, app.EventUserJoined, UserEvent{User: user})
	reply(ack, core.AckResult{OK: true, User: &user, UsersInRoom: o.Registry.UsersInRoom(user.RoomID)})
}

// Leave unbinds sid from its room; the connection stays open.
func (o *Orchestrator) Leave(sid core.SessionID, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	if user, ok := o.Registry.Leave(sid); ok {
		o.toRoomAll(user.RoomID, app.EventUserLeft, UserEvent{User: user})
	}
	reply(ack, core.AckResult{OK: true})
}

// OnDisconnect is the transport-initiated cleanup. It always runs to
// completion regardless of operations still in flight for sid.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(user.RoomID)).Str("username", user.Username).Msg("disconnected")
	o.toRoomAll(user.RoomID, app.EventUserDisconnected, UserEvent{User: user})
}

// KickBySID closes the transport of sid; cleanup follows via OnDisconnect.
func (o *Orchestrator) KickBySID(sid core.SessionID) bool {
	return o.Registry.Cancel(sid)
}

// EvictRoom kicks every member of a room.
func (o *Orchestrator) EvictRoom(room domain.RoomID) int {
	members := o.Registry.MembersOfRoom(room)
	for _, snap := range members {
		o.KickBySID(snap.SID)
	}
	return len(members)
}
