package orch

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultStoreTimeout = 5 * time.Second

// Orchestrator is the session coordinator: the single writer of the
// registry, the permission store and the resource tree. mu serializes
// operations so events reach every room member in issue order.
type Orchestrator struct {
	Registry     *app.Registry
	Perms        *app.PermissionStore
	Resources    *app.ResourceTree
	Router       *app.BroadcastRouter
	Policy       app.Policy
	Store        core.ContentStore
	StoreTimeout time.Duration

	mu     sync.Mutex
	writes *storeLedger
}

// New wires an orchestrator around reg. store may be nil.
func New(reg *app.Registry, policy app.Policy, store core.ContentStore) *Orchestrator {
	return &Orchestrator{
		Registry:     reg,
		Perms:        app.NewPermissionStore(),
		Resources:    app.NewResourceTree(),
		Router:       app.NewBroadcastRouter(reg),
		Policy:       policy,
		Store:        store,
		StoreTimeout: defaultStoreTimeout,
		writes:       newStoreLedger(),
	}
}

// caller resolves the acting user of sid.
func (o *Orchestrator) caller(sid core.SessionID) (domain.User, error) {
	u, ok := o.Registry.UserOf(sid)
	if !ok {
		return domain.User{}, domain.ErrNotJoined
	}
	return u, nil
}

// enforce applies the back-pressure policy to the connections a publish
// could not reach.
func (o *Orchestrator) enforce(room domain.RoomID, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow)).Str("room", string(room)).Msg("kicking slow member")
			o.Registry.Cancel(slow)
		case app.DropFrame, app.NoAction:
		}
	}
}

func (o *Orchestrator) toRoom(room domain.RoomID, sender core.SessionID, event string, payload any) {
	o.enforce(room, o.Router.ToRoomExceptSender(room, sender, event, payload))
}

func (o *Orchestrator) toRoomAll(room domain.RoomID, event string, payload any) {
	o.enforce(room, o.Router.ToRoomIncludingSender(room, event, payload))
}

// fail reports err to the caller: the direct notification depends only
// on the error kind, then the failure ack follows.
func (o *Orchestrator) fail(sid core.SessionID, f Failure, err error, ack core.Ack) {
	f.Reason = domain.Reason(err)
	switch {
	case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrNotOwner):
		o.Router.ToConnection(sid, app.EventPermDenied, f)
	case errors.Is(err, domain.ErrUsernameTaken):
		o.Router.ToConnection(sid, app.EventUsernameTaken, f)
	case errors.Is(err, domain.ErrOwnerNotFound), errors.Is(err, domain.ErrOwnerOffline):
		o.Router.ToConnection(sid, app.EventError, f)
	}
	log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("action", f.Action).
		Str("resource", f.ResourceID).Str("reason", f.Reason).Msg("operation rejected")
	reply(ack, core.AckResult{OK: false, Reason: f.Reason})
}

// WhoAmI reports the joined user of sid.
func (o *Orchestrator) WhoAmI(sid core.SessionID) (domain.User, bool) {
	return o.Registry.UserOf(sid)
}

// Shutdown cancels every live transport.
func (o *Orchestrator) Shutdown() {
	n := o.Registry.CancelAll()
	log.Info().Str("module", "orch").Int("sessions", n).Msg("canceled all sessions")
}

func reply(ack core.Ack, res core.AckResult) {
	if ack != nil {
		ack(res)
	}
}

// once guards an ack so it runs at most one time.
func once(ack core.Ack) core.Ack {
	if ack == nil {
		return nil
	}
	var o sync.Once
	return func(res core.AckResult) {
		o.Do(func() { ack(res) })
	}
}
