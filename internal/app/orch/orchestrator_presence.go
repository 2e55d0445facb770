package orch

import (
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/google/uuid"
)

const maxChatLen = 4096

// Typing flips the typing flag of the caller and moves its cursor.
func (o *Orchestrator) Typing(sid core.SessionID, typing bool, req PresenceRequest, ack core.Ack) {
	event := app.EventTypingPause
	if typing {
		event = app.EventTypingStart
	}
	o.presence(sid, event, ack, func(u *domain.User) {
		u.Typing = typing
		u.SetCursor(req.CursorPosition, req.Selection)
	})
}

// MoveCursor updates the cursor without touching the typing flag.
func (o *Orchestrator) MoveCursor(sid core.SessionID, req PresenceRequest, ack core.Ack) {
	o.presence(sid, app.EventCursorMoved, ack, func(u *domain.User) {
		u.SetCursor(req.CursorPosition, req.Selection)
	})
}

func (o *Orchestrator) presence(sid core.SessionID, event string, ack core.Ack, fn func(*domain.User)) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	user, ok := o.Registry.UpdatePresence(sid, fn)
	if !ok {
		o.fail(sid, Failure{Action: event}, domain.ErrNotJoined, ack)
		return
	}
	o.toRoom(user.RoomID, sid, event, UserEvent{User: user})
	reply(ack, core.AckResult{OK: true})
}

// SendMessage relays a chat line to the rest of the room.
func (o *Orchestrator) SendMessage(sid core.SessionID, req ChatRequest, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	f := Failure{Action: app.EventSendMessage}
	user, err := o.caller(sid)
	if err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" || len(text) > maxChatLen {
		o.fail(sid, f, fmt.Errorf("message length %d: %w", len(text), domain.ErrInvalidRequest), ack)
		return
	}
	o.toRoom(user.RoomID, sid, app.EventMessageReceived, MessageReceived{
		ID:      uuid.NewString(),
		Message: text,
		From:    user.Username,
		SentAt:  time.Now().UTC(),
	})
	reply(ack, core.AckResult{OK: true})
}

// RequestDrawing asks the room for the current drawing; any member may
// answer with SyncDrawing addressed to the requester.
func (o *Orchestrator) RequestDrawing(sid core.SessionID, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	user, err := o.caller(sid)
	if err != nil {
		o.fail(sid, Failure{Action: app.EventDrawingRequest}, err, ack)
		return
	}
	o.toRoom(user.RoomID, sid, app.EventDrawingRequested, DrawingRequested{Requester: sid, From: user.Username})
	reply(ack, core.AckResult{OK: true})
}

// SyncDrawing delivers drawing data to one member of the caller's room.
func (o *Orchestrator) SyncDrawing(sid core.SessionID, req DrawingSyncRequest, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	f := Failure{Action: app.EventDrawingSync}
	user, err := o.caller(sid)
	if err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	if req.Target == "" || len(req.Data) == 0 {
		o.fail(sid, f, domain.ErrInvalidRequest, ack)
		return
	}
	if room, ok := o.Registry.RoomOf(req.Target); !ok || room != user.RoomID {
		o.fail(sid, f, fmt.Errorf("target %s not in room: %w", req.Target, domain.ErrInvalidRequest), ack)
		return
	}
	o.Router.ToConnection(req.Target, app.EventDrawingSync, DrawingSync{Data: req.Data, From: user.Username})
	reply(ack, core.AckResult{OK: true})
}

// UpdateDrawing broadcasts a new snapshot of the shared drawing.
func (o *Orchestrator) UpdateDrawing(sid core.SessionID, req DrawingUpdateRequest, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	f := Failure{Action: app.EventDrawingUpdate}
	user, err := o.caller(sid)
	if err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	if len(req.Snapshot) == 0 {
		o.fail(sid, f, domain.ErrInvalidRequest, ack)
		return
	}
	o.toRoom(user.RoomID, sid, app.EventDrawingUpdated, DrawingUpdated{Snapshot: req.Snapshot, From: user.Username})
	reply(ack, core.AckResult{OK: true})
}
