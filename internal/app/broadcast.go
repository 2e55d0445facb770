package app

import (
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/rs/zerolog/log"
)

// BroadcastRouter fans encoded events out to the connections of a room.
// Delivery is fire-and-forget: a full outbound queue is reported in the
// PublishResult, never waited on.
type BroadcastRouter struct {
	Registry *Registry
}

func NewBroadcastRouter(reg *Registry) *BroadcastRouter {
	return &BroadcastRouter{Registry: reg}
}

func (b *BroadcastRouter) ToRoomExceptSender(room domain.RoomID, sender core.SessionID, event string, payload any) core.PublishResult {
	return b.toRoom(room, sender, event, payload)
}

func (b *BroadcastRouter) ToRoomIncludingSender(room domain.RoomID, event string, payload any) core.PublishResult {
	return b.toRoom(room, "", event, payload)
}

func (b *BroadcastRouter) toRoom(room domain.RoomID, skip core.SessionID, event string, payload any) core.PublishResult {
	res := core.PublishResult{}
	frame, err := core.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", event).Msg("encode")
		return res
	}
	for _, snap := range b.Registry.MembersOfRoom(room) {
		if snap.SID == skip {
			continue
		}
		if err := snap.Conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, snap.SID)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.broadcast").Str("room", string(room)).Str("event", event).
		Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// ToConnection delivers to exactly one connection. An unknown sid is a
// normal race with disconnect and is dropped silently.
func (b *BroadcastRouter) ToConnection(sid core.SessionID, event string, payload any) core.PublishResult {
	res := core.PublishResult{}
	conn, ok := b.Registry.Conn(sid)
	if !ok {
		return res
	}
	frame, err := core.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", event).Msg("encode")
		return res
	}
	if err := conn.TrySend(frame); err != nil {
		res.Dropped = append(res.Dropped, sid)
		return res
	}
	res.SendTo = 1
	return res
}

// Reply sends an ack frame for ackID to sid.
func (b *BroadcastRouter) Reply(sid core.SessionID, ackID int64, result core.AckResult) bool {
	conn, ok := b.Registry.Conn(sid)
	if !ok {
		return false
	}
	frame, err := core.EncodeAck(EventAck, ackID, result)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("encode ack")
		return false
	}
	return conn.TrySend(frame) == nil
}
