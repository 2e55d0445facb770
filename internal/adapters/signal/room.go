package signal

import (
	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/core"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

func (ctl *SignalWSController) handleJoin(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.JoinRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventJoinRoom, err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(p.RoomID)).Str("username", p.Username).Msg("join")
	ctl.Orch.Join(sid, p, ack)
}
