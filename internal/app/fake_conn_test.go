package app

import (
	"sync"

	"github.com/dkeye/cowork/internal/core"
	"github.com/tidwall/gjson"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

var _ core.SignalConnection = (*fakeConn)(nil)

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
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

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, gjson.GetBytes(f, "event").String())
	}
	return out
}

func (c *fakeConn) last() gjson.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return gjson.Result{}
	}
	return gjson.ParseBytes(c.frames[len(c.frames)-1])
}
