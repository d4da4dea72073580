package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/app"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/core"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const sendBuffer = 32

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// SignalWSController streams session events to devices and accepts in-band
// participant updates.
type SignalWSController struct {
	Registry *app.Registry
	Hub      *core.Hub
	Opts     Options

	// beforeSubscribe runs between the pre-upgrade check and Hub.Subscribe.
	beforeSubscribe func(code domain.Code)
}

func NewSignalWSController(reg *app.Registry, hub *core.Hub, opts Options) *SignalWSController {
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 5 * time.Second
	}
	return &SignalWSController{Registry: reg, Hub: hub, Opts: opts}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting frames. The write pump flushes what is queued and
// then closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// discardQueued drops unsent frames. Only call it once no producer can reach c.
func (c *WsSignalConn) discardQueued() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleStream serves GET /api/sessions/:code/ws. callerID is the identity
// resolved by the HTTP layer; it is the default target of in-band updates.
func (ctl *SignalWSController) HandleStream(ctx context.Context, c *gin.Context, callerID domain.UserID) {
	code := domain.Code(c.Param("code"))
	snap, err := ctl.Registry.Status(code)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
		return
	}
	if snap.Status == domain.StatusEnded {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": "ended", "message": domain.ErrEnded.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Opts.ReadLimit)
	}

	conn := &WsSignalConn{conn: ws, send: make(chan core.Frame, sendBuffer)}
	sub := &subscriber{
		id:     core.SubscriberID(uuid.NewString()),
		code:   code,
		caller: callerID,
		conn:   conn,
	}
	log.Info().Str("module", "signal").Str("code", string(code)).Str("sub", string(sub.id)).Str("user_id", string(callerID)).Msg("new WS connection")

	if ctl.beforeSubscribe != nil {
		ctl.beforeSubscribe(code)
	}
	// Subscribe before re-reading the session: an End that slipped in after the
	// pre-check either already shows here or drains this subscriber later.
	ctl.Hub.Subscribe(code, sub.id, conn)
	cur, err := ctl.Registry.Status(code)
	switch {
	case err != nil || cur.ID != snap.ID:
		ctl.reject(sub, errorMessage{Type: "error", Error: "not_found", Message: domain.ErrNotFound.Error()})
		go ctl.writePump(ctx, conn)
		return
	case cur.Status == domain.StatusEnded:
		ctl.reject(sub, errorMessage{Type: "error", Error: "ended", Message: domain.ErrEnded.Error()})
		go ctl.writePump(ctx, conn)
		return
	}

	ctl.sendJSON(conn, stateMessage{Type: "session_state", Session: cur})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sub)
}

// reject drops a subscriber that lost the race against End or a code reuse.
// The write pump flushes msg and closes the socket.
func (ctl *SignalWSController) reject(s *subscriber, msg errorMessage) {
	ctl.Hub.Unsubscribe(s.code, s.id)
	// Frames queued meanwhile may belong to another session that reused the code.
	s.conn.discardQueued()
	ctl.sendJSON(s.conn, msg)
	s.conn.Close()
	log.Info().Str("module", "signal").Str("code", string(s.code)).Str("sub", string(s.id)).Str("reason", msg.Error).Msg("stream rejected")
}

type subscriber struct {
	id     core.SubscriberID
	code   domain.Code
	caller domain.UserID
	conn   *WsSignalConn
}

type stateMessage struct {
	Type    string         `json:"type"`
	Session domain.Session `json:"session"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
