package app

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dkeye/cowork/internal/core"
	"github.com/dkeye/cowork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_JoinAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("s1", &fakeConn{}, nil)

	u, prev, err := reg.Join("s1", "r1", "alice")
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, domain.RoomID("r1"), u.RoomID)
	assert.Equal(t, domain.StatusOnline, u.Status)

	room, ok := reg.RoomOf("s1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), room)

	got, ok := reg.UserOf("s1")
	require.True(t, ok)
	assert.Equal(t, u, got)

	_, ok = reg.RoomOf("nope")
	assert.False(t, ok)
	assert.Empty(t, reg.UsersInRoom("unknown"))
}

func TestRegistry_JoinValidation(t *testing.T) {
	reg := NewRegistry()

	_, _, err := reg.Join("s1", "", "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidRoom)

	_, _, err = reg.Join("s1", "r1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, ok := reg.UserOf("s1")
	assert.False(t, ok)
}

func TestRegistry_UsernameTakenLeavesRoomUnchanged(t *testing.T) {
	reg := NewRegistry()
	_, _, err := reg.Join("s1", "r1", "alice")
	require.NoError(t, err)

	_, _, err = reg.Join("s2", "r1", "alice")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	users := reg.UsersInRoom("r1")
	require.Len(t, users, 1)
	assert.Equal(t, domain.UserID("s1"), users[0].ID)
	_, ok := reg.RoomOf("s2")
	assert.False(t, ok)

	// same name in another room is fine
	_, _, err = reg.Join("s2", "r2", "alice")
	assert.NoError(t, err)
}

func TestRegistry_ConcurrentJoinsSameUsername(t *testing.T) {
	reg := NewRegistry()
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := reg.Join(core.SessionID(fmt.Sprintf("s%d", i)), "r1", "alice"); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.Len(t, reg.UsersInRoom("r1"), 1)
}

func TestRegistry_RejoinMovesUser(t *testing.T) {
	reg := NewRegistry()
	_, _, err := reg.Join("s1", "r1", "alice")
	require.NoError(t, err)

	// rejoining the same room under the same name does not collide with itself
	_, prev, err := reg.Join("s1", "r1", "alice")
	require.NoError(t, err)
	require.NotNil(t, prev)

	_, prev, err = reg.Join("s1", "r2", "alice")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, domain.RoomID("r1"), prev.RoomID)
	assert.Empty(t, reg.UsersInRoom("r1"))
	assert.Len(t, reg.UsersInRoom("r2"), 1)
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{}
	reg.Bind("s1", conn, nil)
	_, _, err := reg.Join("s1", "r1", "alice")
	require.NoError(t, err)

	u, ok := reg.Leave("s1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusOffline, u.Status)

	_, ok = reg.Leave("s1")
	assert.False(t, ok)

	_, ok = reg.RoomOf("s1")
	assert.False(t, ok)
	assert.Empty(t, reg.Rooms())

	// the connection survives a leave
	c, ok := reg.Conn("s1")
	require.True(t, ok)
	assert.Same(t, conn, c)
}

func TestRegistry_UnbindCleansUp(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("s1", &fakeConn{}, nil)
	_, _, err := reg.Join("s1", "r1", "alice")
	require.NoError(t, err)

	u, ok := reg.Unbind("s1")
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	_, ok = reg.UserOf("s1")
	assert.False(t, ok)
	_, ok = reg.RoomOf("s1")
	assert.False(t, ok)
	_, ok = reg.Conn("s1")
	assert.False(t, ok)
	assert.Empty(t, reg.MembersOfRoom("r1"))

	_, ok = reg.Unbind("s1")
	assert.False(t, ok)
}

func TestRegistry_FindByUsernameAndPresence(t *testing.T) {
	reg := NewRegistry()
	_, _, err := reg.Join("s1", "r1", "alice")
	require.NoError(t, err)
	_, _, err = reg.Join("s2", "r1", "bob")
	require.NoError(t, err)

	sid, ok := reg.FindByUsername("r1", "bob")
	require.True(t, ok)
	assert.Equal(t, core.SessionID("s2"), sid)
	_, ok = reg.FindByUsername("r2", "bob")
	assert.False(t, ok)

	u, ok := reg.UpdatePresence("s1", func(u *domain.User) {
		u.Typing = true
		u.SetCursor(-3, &domain.Selection{Start: 5, End: 2})
	})
	require.True(t, ok)
	assert.True(t, u.Typing)
	assert.Equal(t, 0, u.CursorPosition)
	require.NotNil(t, u.Selection)
	assert.Equal(t, domain.Selection{Start: 5, End: 5}, *u.Selection)

	_, ok = reg.UpdatePresence("ghost", func(*domain.User) {})
	assert.False(t, ok)
}

func TestRegistry_RoomsAndCancel(t *testing.T) {
	reg := NewRegistry()
	var canceled atomic.Int32
	cancel := func() { canceled.Add(1) }
	reg.Bind("s1", &fakeConn{}, cancel)
	reg.Bind("s2", &fakeConn{}, cancel)
	_, _, _ = reg.Join("s1", "b", "alice")
	_, _, _ = reg.Join("s2", "a", "bob")

	assert.Equal(t, []domain.RoomInfo{{ID: "a", MemberCount: 1}, {ID: "b", MemberCount: 1}}, reg.Rooms())

	assert.True(t, reg.Cancel("s1"))
	assert.False(t, reg.Cancel("ghost"))
	assert.Equal(t, 2, reg.CancelAll())
	assert.EqualValues(t, 3, canceled.Load())
}
