package signal

import (
	"context"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/tidwall/gjson"
)

// Content writes outlive the socket: a save that started is finished even
// if the author disconnects, bounded by the store timeout.

func (ctl *SignalWSController) handleCreate(ctx context.Context, sid core.SessionID, event string, payload gjson.Result, ack core.Ack) {
	var p orch.CreateResourceRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, event, err)
		return
	}
	if event == app.EventDirectoryCreated {
		p.Kind = domain.KindDirectory
	} else if p.Kind == "" {
		p.Kind = domain.KindFile
	}
	ctl.Orch.CreateResource(context.WithoutCancel(ctx), sid, p, ack)
}

func (ctl *SignalWSController) handleUpdate(ctx context.Context, sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.UpdateResourceRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventFileUpdated, err)
		return
	}
	ctl.Orch.UpdateResource(context.WithoutCancel(ctx), sid, p, ack)
}

func (ctl *SignalWSController) handleDelete(ctx context.Context, sid core.SessionID, event string, payload gjson.Result, ack core.Ack) {
	var p orch.DeleteResourceRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, event, err)
		return
	}
	if event == app.EventDirectoryDeleted {
		p.Kind = domain.KindDirectory
	}
	ctl.Orch.DeleteResource(context.WithoutCancel(ctx), sid, p, ack)
}

func (ctl *SignalWSController) handleRequestPermission(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.PermissionRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventRequestPerm, err)
		return
	}
	ctl.Orch.RequestPermission(sid, p, ack)
}

func (ctl *SignalWSController) handleGrant(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.GrantRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventGrantPerm, err)
		return
	}
	ctl.Orch.GrantPermission(sid, p, ack)
}

func (ctl *SignalWSController) handleRevoke(sid core.SessionID, payload gjson.Result, ack core.Ack) {
	var p orch.RevokeRequest
	if err := decode(payload, &p); err != nil {
		ctl.reject(sid, ack, app.EventRevokePerm, err)
		return
	}
	ctl.Orch.RevokePermission(sid, p, ack)
}
