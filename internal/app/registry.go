package app

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Conn   core.SignalConnection
	Cancel context.CancelFunc
	User   *domain.User // nil while unjoined
}

// Registry maps live connections to the user and room bound to them.
// It also keeps a room index so room lookups do not scan every session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	rooms    map[domain.RoomID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		rooms:    make(map[domain.RoomID]map[core.SessionID]struct{}),
	}
}

// Bind registers a freshly connected transport. Rebinding a known sid
// replaces its connection but keeps the room binding.
func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Conn, e.Cancel = conn, cancel
	} else {
		r.sessions[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// Unbind forgets the connection entirely and returns the user it carried.
func (r *Registry) Unbind(sid core.SessionID) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.User{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	if e.User == nil {
		return domain.User{}, false
	}
	r.dropFromRoomLocked(sid, e.User.RoomID)
	u := e.User.Clone()
	u.Status = domain.StatusOffline
	return u, true
}

// Join binds sid to room under username. The uniqueness check and the
// insert happen under one lock. If sid was already joined somewhere, the
// previous user is returned so the caller can announce the move.
func (r *Registry) Join(sid core.SessionID, room domain.RoomID, username string) (user domain.User, prev *domain.User, err error) {
	u, err := domain.NewUser(domain.UserID(sid), username, room)
	if err != nil {
		return domain.User{}, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		// joins may arrive from transports that never called Bind (tests, REST)
		e = &sessionEntry{}
		r.sessions[sid] = e
	}
	for other := range r.rooms[room] {
		if other == sid {
			continue
		}
		if oe := r.sessions[other]; oe != nil && oe.User != nil && oe.User.Username == username {
			return domain.User{}, nil, domain.ErrUsernameTaken
		}
	}
	if e.User != nil {
		p := e.User.Clone()
		p.Status = domain.StatusOffline
		prev = &p
		r.dropFromRoomLocked(sid, e.User.RoomID)
	}
	e.User = u
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[core.SessionID]struct{})
		r.rooms[room] = members
	}
	members[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Str("username", username).Msg("joined room")
	return u.Clone(), prev, nil
}

// Leave unbinds sid from its room but keeps the connection registered.
// It is a no-op for an unjoined sid.
func (r *Registry) Leave(sid core.SessionID) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == nil {
		return domain.User{}, false
	}
	u := e.User.Clone()
	u.Status = domain.StatusOffline
	r.dropFromRoomLocked(sid, e.User.RoomID)
	e.User = nil
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(u.RoomID)).Msg("left room")
	return u, true
}

func (r *Registry) dropFromRoomLocked(sid core.SessionID, room domain.RoomID) {
	members := r.rooms[room]
	delete(members, sid)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == nil {
		return "", false
	}
	return e.User.RoomID, true
}

func (r *Registry) UserOf(sid core.SessionID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == nil {
		return domain.User{}, false
	}
	return e.User.Clone(), true
}

// Conn returns the transport bound to sid, joined or not.
func (r *Registry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Conn == nil {
		return nil, false
	}
	return e.Conn, true
}

// UsersInRoom returns the room's users ordered by join time.
func (r *Registry) UsersInRoom(room domain.RoomID) []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.rooms[room]))
	for sid := range r.rooms[room] {
		if e := r.sessions[sid]; e != nil && e.User != nil {
			out = append(out, e.User.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// FindByUsername resolves a username inside one room.
func (r *Registry) FindByUsername(room domain.RoomID, username string) (core.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sid := range r.rooms[room] {
		if e := r.sessions[sid]; e != nil && e.User != nil && e.User.Username == username {
			return sid, true
		}
	}
	return "", false
}

// UpdatePresence applies fn to the joined user of sid and returns the result.
func (r *Registry) UpdatePresence(sid core.SessionID, fn func(u *domain.User)) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == nil {
		return domain.User{}, false
	}
	fn(e.User)
	return e.User.Clone(), true
}

type regSnap struct {
	SID  core.SessionID
	Conn core.SignalConnection
}

func (r *Registry) MembersOfRoom(room domain.RoomID) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.rooms[room]))
	for sid := range r.rooms[room] {
		if e := r.sessions[sid]; e != nil && e.Conn != nil {
			out = append(out, regSnap{SID: sid, Conn: e.Conn})
		}
	}
	return out
}

func (r *Registry) Rooms() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for id, members := range r.rooms {
		out = append(out, domain.RoomInfo{ID: id, MemberCount: len(members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cancel stops the transport of sid. Cleanup follows through the
// adapter's disconnect path.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// CancelAll stops every bound transport; used on shutdown.
func (r *Registry) CancelAll() int {
	r.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(r.sessions))
	for _, e := range r.sessions {
		if e.Cancel != nil {
			cancels = append(cancels, e.Cancel)
		}
	}
	r.mu.RUnlock()
	for _, c := range cancels {
		c()
	}
	return len(cancels)
}
