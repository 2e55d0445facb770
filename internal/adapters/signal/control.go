package signal

import (
	"time"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
)

func (ctl *SignalWSController) handlePing(sid core.SessionID, ack core.Ack) {
	resp := struct {
		Time int64 `json:"time"`
	}{
		Time: time.Now().UnixMilli(),
	}
	ctl.Orch.Router.ToConnection(sid, app.EventPong, resp)
	if ack != nil {
		ack(core.AckResult{OK: true})
	}
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, ack core.Ack) {
	resp := struct {
		SID  core.SessionID `json:"sid"`
		User *domain.User   `json:"user,omitempty"`
	}{
		SID: sid,
	}
	user, ok := ctl.Orch.WhoAmI(sid)
	if ok {
		resp.User = &user
	}
	ctl.Orch.Router.ToConnection(sid, app.EventWhoAmI, resp)
	if ack != nil {
		res := core.AckResult{OK: ok}
		if ok {
			res.User = &user
		} else {
			res.Reason = domain.Reason(domain.ErrNotJoined)
		}
		ack(res)
	}
}
