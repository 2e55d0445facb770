package orch

import (
	"strings"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultRequestType = "edit"

// RequestPermission forwards an access request to the owner of a
// resource. Nothing is stored; the owner answers with a grant.
func (o *Orchestrator) RequestPermission(sid core.SessionID, req PermissionRequest, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	f := Failure{Action: app.EventRequestPerm, ResourceID: req.ResourceID}
	user, err := o.caller(sid)
	if err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	if req.ResourceID == "" {
		o.fail(sid, f, domain.ErrInvalidRequest, ack)
		return
	}
	owner, ok := o.ownerInRoom(user.RoomID, req.ResourceID)
	if !ok {
		o.fail(sid, f, domain.ErrOwnerNotFound, ack)
		return
	}
	target, online := o.Registry.FindByUsername(user.RoomID, owner)
	if !online {
		f.Username = owner
		o.fail(sid, f, domain.ErrOwnerOffline, ack)
		return
	}
	kind := strings.TrimSpace(req.RequestType)
	if kind == "" {
		kind = defaultRequestType
	}
	o.Router.ToConnection(target, app.EventPermRequested, PermissionRequested{
		ResourceID:  req.ResourceID,
		Requester:   user.Username,
		RequestType: kind,
		Message:     req.Message,
	})
	reply(ack, core.AckResult{OK: true})
}

// GrantPermission replaces the entry of req.Username on a resource the
// caller owns. The target is told only if it is in the room right now.
func (o *Orchestrator) GrantPermission(sid core.SessionID, req GrantRequest, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	f := Failure{Action: app.EventGrantPerm, ResourceID: req.ResourceID, Username: req.Username}
	user, err := o.caller(sid)
	if err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	if req.ResourceID == "" || req.Username == "" {
		o.fail(sid, f, domain.ErrInvalidRequest, ack)
		return
	}
	if _, ok := o.ownerInRoom(user.RoomID, req.ResourceID); !ok {
		o.fail(sid, f, domain.ErrNotOwner, ack)
		return
	}
	perms := domain.Permission{CanEdit: req.CanEdit, CanDelete: req.CanDelete}
	if err := o.Perms.Grant(user.Username, req.ResourceID, req.Username, perms); err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	log.Info().Str("module", "orch").Str("resource", req.ResourceID).Str("owner", user.Username).
		Str("target", req.Username).Bool("can_edit", perms.CanEdit).Bool("can_delete", perms.CanDelete).Msg("permission granted")
	if target, ok := o.Registry.FindByUsername(user.RoomID, req.Username); ok {
		o.Router.ToConnection(target, app.EventPermUpdated, PermissionUpdated{
			ResourceID: req.ResourceID,
			Perms:      perms,
			Owner:      user.Username,
		})
	}
	reply(ack, core.AckResult{OK: true})
}

// RevokePermission drops the entry of req.Username. Revoking an entry
// that does not exist still succeeds.
func (o *Orchestrator) RevokePermission(sid core.SessionID, req RevokeRequest, ack core.Ack) {
	ack = once(ack)
	o.mu.Lock()
	defer o.mu.Unlock()

	f := Failure{Action: app.EventRevokePerm, ResourceID: req.ResourceID, Username: req.Username}
	user, err := o.caller(sid)
	if err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	if req.ResourceID == "" || req.Username == "" {
		o.fail(sid, f, domain.ErrInvalidRequest, ack)
		return
	}
	if _, ok := o.ownerInRoom(user.RoomID, req.ResourceID); !ok {
		o.fail(sid, f, domain.ErrNotOwner, ack)
		return
	}
	if err := o.Perms.Revoke(user.Username, req.ResourceID, req.Username); err != nil {
		o.fail(sid, f, err, ack)
		return
	}
	log.Info().Str("module", "orch").Str("resource", req.ResourceID).Str("owner", user.Username).
		Str("target", req.Username).Msg("permission revoked")
	if target, ok := o.Registry.FindByUsername(user.RoomID, req.Username); ok {
		o.Router.ToConnection(target, app.EventPermRevoked, PermissionRevoked{
			ResourceID: req.ResourceID,
			Owner:      user.Username,
		})
	}
	reply(ack, core.AckResult{OK: true})
}

// ownerInRoom returns the owner of a resource that belongs to room.
func (o *Orchestrator) ownerInRoom(room domain.RoomID, resourceID string) (string, bool) {
	res, ok := o.Resources.Get(resourceID)
	if !ok || res.RoomID != room {
		return "", false
	}
	return o.Perms.Owner(resourceID)
}
