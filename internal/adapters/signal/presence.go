package signal

import (
	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/core"
	"github.com/tidwall/gjson"
)

func (ctl *SignalWSController) handleTyping(sid core.SessionID, typing bool, payload gjson.Result, ack core.Ack) {
	var p orch.PresenceRequest
	if err := decode(payload, &p); err != nil {
		event := app.EventTypingPause
		if typing {
			event = app.EventTypingStart
		}
		ctl.reject(sid, ack, event, err)
		return
	}
	ctl.Orch.Typing(sid, typing, p, ack)
}

func (ctl *SignalWSController) handleCursor(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.PresenceRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventCursorMove, err)
		return
	}
	ctl.Orch.MoveCursor(sid, p, ack)
}

func (ctl *SignalWSController) handleMessage(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.ChatRequest
	// Clients may send the bare text as the payload.
	if payload.Type == gjson.String {
		p.Message = payload.String()
	} else if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventSendMessage, err)
		return
	}
	ctl.Orch.SendMessage(sid, p, ack)
}

func (ctl *SignalWSController) handleDrawingSync(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.DrawingSyncRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventDrawingSync, err)
		return
	}
	ctl.Orch.SyncDrawing(sid, p, ack)
}

func (ctl *SignalWSController) handleDrawingUpdate(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.DrawingUpdateRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventDrawingUpdate, err)
		return
	}
	ctl.Orch.UpdateDrawing(sid, p, ack)
}
