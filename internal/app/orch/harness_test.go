package orch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/core"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full || c.closed {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, append(core.Frame(nil), f...))
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, gjson.GetBytes(f, "event").String())
	}
	return out
}

// find returns the payload of the last frame named event.
func (c *fakeConn) find(event string) (gjson.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		env := gjson.ParseBytes(c.frames[i])
		if env.Get("event").String() == event {
			return env.Get("payload"), true
		}
	}
	return gjson.Result{}, false
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

type fakeStore struct {
	mu      sync.Mutex
	saved   map[string]string
	deleted []string
	saveErr error
}

var _ core.ContentStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore { return &fakeStore{saved: map[string]string{}} }

func (s *fakeStore) Save(ctx context.Context, id, content string) (core.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return core.SaveResult{}, errors.New("save without deadline")
	}
	if s.saveErr != nil {
		return core.SaveResult{}, s.saveErr
	}
	s.saved[id] = content
	return core.SaveResult{Path: "mem://" + id, UpdatedAt: time.Now().UTC()}, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	delete(s.saved, id)
	return nil
}

func (s *fakeStore) content(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.saved[id]
	return c, ok
}

// gatedStore holds the save of one content value until release is closed.
type gatedStore struct {
	*fakeStore
	gate    string
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(gate string) *gatedStore {
	return &gatedStore{
		fakeStore: newFakeStore(),
		gate:      gate,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (s *gatedStore) Save(ctx context.Context, id, content string) (core.SaveResult, error) {
	if content == s.gate {
		close(s.entered)
		<-s.release
	}
	return s.fakeStore.Save(ctx, id, content)
}

type harness struct {
	o     *Orchestrator
	conns map[core.SessionID]*fakeConn
}

func newHarness(t *testing.T, store core.ContentStore) *harness {
	t.Helper()
	o := New(app.NewRegistry(), app.SimplePolicy{}, store)
	return &harness{o: o, conns: map[core.SessionID]*fakeConn{}}
}

func (h *harness) connect(sid core.SessionID) *fakeConn {
	c := &fakeConn{}
	h.conns[sid] = c
	h.o.Registry.Bind(sid, c, c.Close)
	return c
}

// ackInto returns an ack that records into res and counts calls.
func ackInto(res *core.AckResult, calls *int) core.Ack {
	return func(r core.AckResult) {
		*res = r
		if calls != nil {
			*calls++
		}
	}
}

func (h *harness) join(t *testing.T, sid core.SessionID, room, username string) core.AckResult {
	t.Helper()
	if _, ok := h.conns[sid]; !ok {
		h.connect(sid)
	}
	var res core.AckResult
	h.o.Join(sid, JoinRequest{RoomID: domainRoom(room), Username: username}, ackInto(&res, nil))
	return res
}

func (h *harness) createFile(t *testing.T, sid core.SessionID, id, content string) core.AckResult {
	t.Helper()
	var res core.AckResult
	h.o.CreateResource(context.Background(), sid, CreateResourceRequest{ID: id, Name: id, Content: &content}, ackInto(&res, nil))
	require.True(t, res.OK, "create %s: %s", id, res.Reason)
	return res
}

func str(s string) *string { return &s }
