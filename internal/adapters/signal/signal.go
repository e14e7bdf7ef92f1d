package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/app"
	"github.com/p2parena/lobbyd/internal/config"
	"github.com/p2parena/lobbyd/internal/core"
	"github.com/p2parena/lobbyd/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the lobby-facing side of every websocket
// connection: upgrade, pumps, event dispatch and fan-out.
type Controller struct {
	Lobby   *app.Lobby
	limiter *EventRateLimiter
	cfg     *config.Config
}

func NewController(lobby *app.Lobby, cfg *config.Config) *Controller {
	return &Controller{
		Lobby:   lobby,
		limiter: NewEventRateLimiter(cfg.MsgRate, cfg.MsgWindow),
		cfg:     cfg,
	}
}

// WsConn wraps one websocket connection with a buffered outbound
// queue so handlers never block on a slow client.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
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

// HandleSignal upgrades an authenticated request and runs the
// connection until the peer goes away. Each connection gets a fresh
// id; the id is the user's identity key inside rooms.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	connID := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("new WS connection")

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Lobby.Connect(connID, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, connID, conn)
		ctl.handleDisconnect(connID)
	}()
}

// broadcastRoster fans an event out to the given users' connections.
// skip excludes one connection; pass the empty id to reach everyone.
func (ctl *Controller) broadcastRoster(roster []domain.User, skip domain.ConnID, event string, v any) {
	ids := make([]domain.ConnID, 0, len(roster))
	for _, u := range roster {
		ids = append(ids, u.ConnID)
	}
	for _, snap := range ctl.Lobby.Conns.Resolve(ids, skip) {
		ctl.sendEvent(snap.Sender, event, v)
	}
}

// broadcastOthers fans an event out to every live connection except
// the sender.
func (ctl *Controller) broadcastOthers(skip domain.ConnID, event string, v any) {
	for _, snap := range ctl.Lobby.Conns.Others(skip) {
		ctl.sendEvent(snap.Sender, event, v)
	}
}
