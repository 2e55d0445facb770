package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// writePump owns every write on the socket. Leaving it closes the
// socket, which in turn ends readPump.
func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Orch.OnDisconnect(sid)
		ctl.Limiter.Forget(sid)
		ctl.EditLimiter.Forget(sid)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, sid, data)
		}
	}
}

// handleSignal routes one inbound envelope
// {"event": name, "ackId": n, "payload": {...}} to the orchestrator.
func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.SessionID, data []byte) {
	if !gjson.ValidBytes(data) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.reject(sid, nil, "", domain.ErrInvalidRequest)
		return
	}
	env := gjson.ParseBytes(data)
	event := env.Get("event").String()
	payload := env.Get("payload")

	var ack core.Ack
	if id := env.Get("ackId"); id.Exists() {
		ackID := id.Int()
		ack = func(res core.AckResult) {
			ctl.Orch.Router.Reply(sid, ackID, res)
		}
	}

	if event == "" {
		ctl.reject(sid, ack, event, fmt.Errorf("missing event: %w", domain.ErrInvalidRequest))
		return
	}
	if rl := ctl.limiterFor(event); rl != nil && !rl.Allow(sid) {
		ctl.reject(sid, ack, event, domain.ErrRateLimited)
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("event", event).Msg("inbound")

	switch event {
	case app.EventJoinRoom:
		ctl.handleJoin(sid, payload, ack)
	case app.EventLeaveRoom:
		ctl.Orch.Leave(sid, ack)
	case app.EventFileCreated, app.EventDirectoryCreated:
		ctl.handleCreate(ctx, sid, event, payload, ack)
	case app.EventFileUpdated:
		ctl.handleUpdate(ctx, sid, payload, ack)
	case app.EventFileDeleted, app.EventDirectoryDeleted:
		ctl.handleDelete(ctx, sid, event, payload, ack)
	case app.EventRequestPerm:
		ctl.handleRequestPermission(sid, payload, ack)
	case app.EventGrantPerm:
		ctl.handleGrant(sid, payload, ack)
	case app.EventRevokePerm:
		ctl.handleRevoke(sid, payload, ack)
	case app.EventTypingStart, app.EventTypingPause:
		ctl.handleTyping(sid, event == app.EventTypingStart, payload, ack)
	case app.EventCursorMove:
		ctl.handleCursor(sid, payload, ack)
	case app.EventSendMessage:
		ctl.handleMessage(sid, payload, ack)
	case app.EventDrawingRequest:
		ctl.Orch.RequestDrawing(sid, ack)
	case app.EventDrawingSync:
		ctl.handleDrawingSync(sid, payload, ack)
	case app.EventDrawingUpdate:
		ctl.handleDrawingUpdate(sid, payload, ack)
	case app.EventPing:
		ctl.handlePing(sid, ack)
	case app.EventWhoAmI:
		ctl.handleWhoAmI(sid, ack)
	default:
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("event", event).Msg("unknown signal")
		ctl.reject(sid, ack, event, fmt.Errorf("unknown event %q: %w", event, domain.ErrInvalidRequest))
	}
}

// decode unmarshals payload into v. A missing payload decodes as {}.
func decode(payload gjson.Result, v any) error {
	raw := payload.Raw
	if !payload.Exists() {
		raw = "{}"
	}
	if !payload.IsObject() && payload.Exists() {
		return fmt.Errorf("payload is %s: %w", payload.Type, domain.ErrInvalidRequest)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode payload: %w: %w", domain.ErrInvalidRequest, err)
	}
	return nil
}

// reject answers a request the orchestrator never saw. Without an ack id
// the caller gets an error event instead.
func (ctl *SignalWSController) reject(sid core.SessionID, ack core.Ack, event string, err error) {
	reason := domain.Reason(err)
	log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("event", event).Str("reason", reason).Msg("rejected")
	if ack != nil {
		ack(core.AckResult{OK: false, Reason: reason})
		return
	}
	ctl.Orch.Router.ToConnection(sid, app.EventError, orch.Failure{Action: event, Reason: reason})
}

// limiterFor returns the rate limit bucket of a high-volume event, or nil
// when the event is never limited. Edits count against their own bucket,
// not against presence traffic.
func (ctl *SignalWSController) limiterFor(event string) *RateLimiter {
	switch event {
	case app.EventFileUpdated:
		return ctl.EditLimiter
	case app.EventTypingStart, app.EventTypingPause, app.EventCursorMove,
		app.EventSendMessage,
		app.EventDrawingRequest, app.EventDrawingSync, app.EventDrawingUpdate:
		return ctl.Limiter
	}
	return nil
}
