package orch

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateResource registers a file or directory owned by the caller and
// sends the stored record to the whole room, creator included.
func (o *Orchestrator) CreateResource(ctx context.Context, sid core.SessionID, req CreateResourceRequest, ack core.Ack) {
	ack = once(ack)
	res, t, err := o.createResource(sid, req)
	if err != nil {
		o.fail(sid, Failure{Action: req.action(), ResourceID: req.ID}, err, ack)
		return
	}
	result := core.AckResult{OK: true, Resource: &res}
	if res.Content != nil {
		saved, err := o.persist(ctx, t, *res.Content)
		if err != nil {
			reply(ack, core.AckResult{OK: false, Reason: domain.Reason(err), Resource: &res})
			return
		}
		result.Path, result.SavedAt = saved.Path, &saved.UpdatedAt
	}
	reply(ack, result)
}

func (o *Orchestrator) createResource(sid core.SessionID, req CreateResourceRequest) (domain.Resource, storeTicket, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user, err := o.caller(sid)
	if err != nil {
		return domain.Resource{}, storeTicket{}, err
	}
	if req.Kind == "" {
		req.Kind = domain.KindFile
	}
	if !req.Kind.Valid() {
		return domain.Resource{}, storeTicket{}, fmt.Errorf("kind %q: %w", req.Kind, domain.ErrInvalidRequest)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.ID
	}
	if req.Kind == domain.KindDirectory {
		req.Content = nil
	}

	res, err := o.Resources.Create(domain.Resource{
		ID:       req.ID,
		Kind:     req.Kind,
		Name:     name,
		ParentID: req.ParentID,
		Content:  req.Content,
		RoomID:   user.RoomID,
		Owner:    user.Username,
	})
	if err != nil {
		return domain.Resource{}, storeTicket{}, err
	}
	var t storeTicket
	if res.Content != nil {
		t = o.ticket(res.ID)
	}
	o.Perms.RegisterOwnership(res.ID, user.Username)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(user.RoomID)).
		Str("resource", res.ID).Str("kind", string(res.Kind)).Msg("resource created")
	o.toRoomAll(user.RoomID, app.EventResourceCreated, ResourceEvent{Resource: res})
	return res, t, nil
}

// UpdateResource replaces a file's content. The broadcast goes out before
// the content store is written; a failed write is reported only in the
// ack, so peers may hold content that was never persisted.
func (o *Orchestrator) UpdateResource(ctx context.Context, sid core.SessionID, req UpdateResourceRequest, ack core.Ack) {
	ack = once(ack)
	res, t, err := o.updateResource(sid, req)
	if err != nil {
		o.fail(sid, Failure{Action: app.EventFileUpdated, ResourceID: req.resourceID()}, err, ack)
		return
	}
	saved, err := o.persist(ctx, t, *res.Content)
	if err != nil {
		reply(ack, core.AckResult{OK: false, Reason: domain.Reason(err)})
		return
	}
	reply(ack, core.AckResult{OK: true, SavedAt: &saved.UpdatedAt, Path: saved.Path})
}

func (o *Orchestrator) updateResource(sid core.SessionID, req UpdateResourceRequest) (domain.Resource, storeTicket, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user, err := o.caller(sid)
	if err != nil {
		return domain.Resource{}, storeTicket{}, err
	}
	id := req.resourceID()
	if id == "" {
		return domain.Resource{}, storeTicket{}, domain.ErrInvalidRequest
	}
	if req.Content == nil {
		return domain.Resource{}, storeTicket{}, fmt.Errorf("missing content: %w", domain.ErrInvalidRequest)
	}
	if !o.allowed(user, id, o.Perms.CanEdit) {
		return domain.Resource{}, storeTicket{}, domain.ErrPermissionDenied
	}
	res, err := o.Resources.UpdateContent(id, *req.Content)
	if err != nil {
		return domain.Resource{}, storeTicket{}, err
	}
	t := o.ticket(res.ID)
	o.toRoom(user.RoomID, sid, app.EventResourceUpdated, ResourceUpdated{
		ResourceID: res.ID,
		Content:    res.Content,
		Version:    res.Version,
		UpdatedBy:  user.Username,
		UpdatedAt:  res.UpdatedAt,
	})
	return res, t, nil
}

// DeleteResource removes a resource, its descendants and their ownership
// and permission entries. The caller needs canDelete on every resource
// removed, descendants included.
func (o *Orchestrator) DeleteResource(ctx context.Context, sid core.SessionID, req DeleteResourceRequest, ack core.Ack) {
	ack = once(ack)
	removed, tickets, err := o.deleteResource(sid, req)
	if err != nil {
		o.fail(sid, Failure{Action: req.action(), ResourceID: req.resourceID()}, err, ack)
		return
	}
	o.forget(ctx, tickets)
	reply(ack, core.AckResult{OK: true, Removed: removed})
}

func (o *Orchestrator) deleteResource(sid core.SessionID, req DeleteResourceRequest) ([]string, []storeTicket, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user, err := o.caller(sid)
	if err != nil {
		return nil, nil, err
	}
	id := req.resourceID()
	if id == "" {
		return nil, nil, domain.ErrInvalidRequest
	}
	if !o.allowed(user, id, o.Perms.CanDelete) {
		return nil, nil, domain.ErrPermissionDenied
	}
	for _, rid := range o.Resources.Descendants(id) {
		if !o.Perms.CanDelete(user.Username, rid) {
			return nil, nil, fmt.Errorf("descendant %s: %w", rid, domain.ErrPermissionDenied)
		}
	}
	removed := o.Resources.Remove(id)
	tickets := make([]storeTicket, 0, len(removed))
	for _, rid := range removed {
		o.Perms.Forget(rid)
		tickets = append(tickets, o.ticket(rid))
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(user.RoomID)).
		Str("resource", id).Int("removed", len(removed)).Msg("resource deleted")
	o.toRoom(user.RoomID, sid, app.EventResourceDeleted, ResourceDeleted{
		ResourceID: id,
		Removed:    removed,
		DeletedBy:  user.Username,
	})
	return removed, tickets, nil
}

// allowed checks a right on a resource of the caller's own room. The same
// username in another room is a different participant.
func (o *Orchestrator) allowed(user domain.User, id string, check func(username, resourceID string) bool) bool {
	res, ok := o.Resources.Get(id)
	if !ok || res.RoomID != user.RoomID {
		return false
	}
	return check(user.Username, id)
}
