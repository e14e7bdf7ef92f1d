package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/domain"
)

type rosterPayload struct {
	Nickname string        `json:"nickname,omitempty"`
	Users    []domain.User `json:"users"`
}

func (ctl *Controller) handleJoinRoom(connID domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Nickname string          `json:"nickname"`
		Room     domain.RoomName `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-room payload")
		ctl.ack(c, "join-room", ackPayload{Error: "bad payload"})
		return
	}

	res, err := ctl.Lobby.Join(connID, p.Nickname, p.Room)
	if err != nil {
		ctl.ack(c, "join-room", ackPayload{Error: err.Error()})
		return
	}

	ctl.broadcastRoster(res.Roster, "", "user-joined", rosterPayload{
		Nickname: res.Nickname,
		Users:    res.Roster,
	})
	ctl.ack(c, "join-room", ackPayload{Accepted: true, Maps: res.Maps})
}

func (ctl *Controller) handleSetReady(connID domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Ready bool            `json:"ready"`
		Room  domain.RoomName `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad set-ready payload")
		ctl.ack(c, "set-ready", ackPayload{Error: "bad payload"})
		return
	}

	out, err := ctl.Lobby.SetReady(connID, p.Room, p.Ready)
	if err != nil {
		ctl.ack(c, "set-ready", ackPayload{Error: err.Error()})
		return
	}

	// Every vote resyncs all clients on the roster, then the start
	// signal fires once when the vote completes.
	ctl.broadcastOthers("", "users-update", rosterPayload{Users: out.Roster})
	if out.Start {
		ctl.broadcastOthers("", "start-map", out.MapIndex)
	}
	ctl.ack(c, "set-ready", ackPayload{Accepted: true})
}

func (ctl *Controller) handleSetRoomMaps(connID domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Maps []domain.Map    `json:"maps"`
		Room domain.RoomName `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad set-room-maps payload")
		ctl.ack(c, "set-room-maps", ackPayload{Error: "bad payload"})
		return
	}

	res, err := ctl.Lobby.SetRoomMaps(p.Room, p.Maps)
	if err != nil {
		ctl.ack(c, "set-room-maps", ackPayload{Error: err.Error()})
		return
	}

	ctl.broadcastRoster(res.Roster, "", "updated-room-maps", struct {
		Room domain.RoomName `json:"room"`
		Maps []domain.Map    `json:"maps"`
	}{p.Room, res.Maps})
	ctl.ack(c, "set-room-maps", ackPayload{Accepted: true})
}

func (ctl *Controller) handleLeaveRoom(connID domain.ConnID, data []byte) {
	var p struct {
		Nickname string          `json:"nickname"`
		Room     domain.RoomName `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave-room payload")
		return
	}

	res := ctl.Lobby.Leave(connID, p.Nickname, p.Room)
	ctl.broadcastRoster(res.Roster, connID, "user-left", rosterPayload{
		Nickname: res.Nickname,
		Users:    res.Roster,
	})
}
