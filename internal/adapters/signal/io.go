package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/core"
	"github.com/p2parena/lobbyd/internal/domain"
)

const writeWait = 5 * time.Second

// envelope is the wire shape of every frame in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ackPayload reports the synchronous outcome of one inbound event
// back to its sender.
type ackPayload struct {
	For      string       `json:"for"`
	Accepted bool         `json:"accepted"`
	Error    string       `json:"error,omitempty"`
	Maps     []domain.Map `json:"maps,omitempty"`
}

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ping := time.NewTicker(ctl.cfg.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, connID domain.ConnID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	pongWait := ctl.cfg.PingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(connID, c, data)
		}
	}
}

func (ctl *Controller) dispatch(connID domain.ConnID, c *WsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}
	if !ctl.limiter.Allow(connID) {
		log.Warn().Str("module", "signal").Str("conn", string(connID)).Str("event", env.Event).Msg("rate limited, dropping event")
		return
	}

	switch env.Event {
	case "join-room":
		ctl.handleJoinRoom(connID, c, env.Data)
	case "set-ready":
		ctl.handleSetReady(connID, c, env.Data)
	case "set-room-maps":
		ctl.handleSetRoomMaps(connID, c, env.Data)
	case "leave-room":
		ctl.handleLeaveRoom(connID, env.Data)
	case "broadcast-positions":
		ctl.handlePositions(connID, env.Data)
	case "message":
		ctl.handleMessage(connID, env.Data)
	case "messageOne":
		ctl.handleMessageOne(connID, env.Data)
	case "ready":
		ctl.handleReady(connID, c, env.Data)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
	}
}

func (ctl *Controller) sendEvent(s core.Sender, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("marshal payload")
		return
	}
	frame, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("marshal envelope")
		return
	}
	_ = s.TrySend(frame)
}

func (ctl *Controller) ack(c *WsConn, event string, payload ackPayload) {
	payload.For = event
	ctl.sendEvent(c, "ack", payload)
}
