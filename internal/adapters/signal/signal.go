package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrConnClosed = errors.New("connection closed")

// Options tune one WebSocket connection.
type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	SendBuffer   int
	RateEvents   int
	EditEvents   int
	RateInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:    1 << 20,
		PingPeriod:   54 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    5 * time.Second,
		SendBuffer:   64,
		RateEvents:   60,
		EditEvents:   120,
		RateInterval: time.Second,
	}
}

type SignalWSController struct {
	Orch        *orch.Orchestrator
	Opts        Options
	Limiter     *RateLimiter
	EditLimiter *RateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch:        o,
		Opts:        opts,
		Limiter:     NewRateLimiter(opts.RateEvents, opts.RateInterval),
		EditLimiter: NewRateLimiter(opts.EditEvents, opts.RateInterval),
	}
}

// WsSignalConn implements core.SignalConnection over a gorilla socket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until either
// side closes it or ctx is done. Every connection gets a fresh handle.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client_token", token).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.Opts.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.Bind(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
