// Package app coordinates the room store and the connection directory.
// Every operation is synchronous and returns a typed result the
// transport adapter turns into acks and broadcasts; no transport
// details leak in here.
package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/core"
	"github.com/p2parena/lobbyd/internal/domain"
)

type Lobby struct {
	Rooms    *core.RoomStore
	Conns    *core.Directory
	Capacity int
}

func NewLobby(capacity int) *Lobby {
	return &Lobby{
		Rooms:    core.NewRoomStore(),
		Conns:    core.NewDirectory(),
		Capacity: capacity,
	}
}

// clampRoomName bounds client-supplied room names so they stay usable
// as log fields and store keys.
func clampRoomName(name domain.RoomName) domain.RoomName {
	if len(name) > domain.MaxRoomNameLen {
		return name[:domain.MaxRoomNameLen]
	}
	return name
}

type JoinResult struct {
	Nickname string
	Roster   []domain.User
	Maps     []domain.Map
}

// Join puts a connection into a room, creating the room on first use.
// The first member becomes leader. On a full room the membership is
// unchanged and a room this call created is dropped again, so a
// rejected join never leaves an empty room behind.
func (l *Lobby) Join(connID domain.ConnID, nickname string, roomName domain.RoomName) (JoinResult, error) {
	roomName = clampRoomName(roomName)
	if len(nickname) > domain.MaxNicknameLen {
		nickname = nickname[:domain.MaxNicknameLen]
	}
	for {
		room := l.Rooms.GetOrCreate(roomName)
		err := room.Add(connID, nickname, l.Capacity)
		if errors.Is(err, core.ErrRoomClosed) {
			continue
		}
		if err != nil {
			l.Rooms.RemoveIfEmpty(roomName)
			return JoinResult{}, err
		}
		log.Info().Str("module", "app.lobby").Str("conn", string(connID)).Str("room", string(roomName)).Str("nickname", nickname).Msg("joined room")
		return JoinResult{Nickname: nickname, Roster: room.Roster(), Maps: room.Maps()}, nil
	}
}

type LeaveResult struct {
	Nickname string
	Roster   []domain.User
	Removed  bool
}

// Leave removes a connection from a room. An absent room counts as
// already empty, so leaving twice, or leaving a room never joined, is
// harmless. The roster in the result is the room after removal, with
// leadership already handed to the earliest remaining joiner when the
// leader left.
func (l *Lobby) Leave(connID domain.ConnID, nickname string, roomName domain.RoomName) LeaveResult {
	roomName = clampRoomName(roomName)
	room := l.Rooms.GetOrCreate(roomName)
	removed, roster, ok := room.Remove(connID)
	l.Rooms.RemoveIfEmpty(roomName)
	if !ok {
		return LeaveResult{Nickname: nickname, Roster: roster}
	}
	log.Info().Str("module", "app.lobby").Str("conn", string(connID)).Str("room", string(roomName)).Int("remaining", len(roster)).Msg("left room")
	return LeaveResult{Nickname: removed.Nickname, Roster: roster, Removed: true}
}

// SetReady records a readiness vote. The room must already exist and
// the voter must be a member. The outcome carries the full roster for
// the users-update broadcast and, when the vote completed, the index
// of the map to start.
func (l *Lobby) SetReady(connID domain.ConnID, roomName domain.RoomName, ready bool) (core.ReadyOutcome, error) {
	room, ok := l.Rooms.Get(clampRoomName(roomName))
	if !ok {
		return core.ReadyOutcome{}, domain.ErrRoomNotFound
	}
	out, err := room.SetReady(connID, ready)
	if err != nil {
		return core.ReadyOutcome{}, err
	}
	if out.Start {
		log.Info().Str("module", "app.lobby").Str("room", string(roomName)).Int("mapIndex", out.MapIndex).Msg("starting map")
	}
	return out, nil
}

type MapsResult struct {
	Maps   []domain.Map
	Roster []domain.User
}

// SetRoomMaps validates and replaces a room's play queue wholesale.
// One invalid entry rejects the whole batch and leaves the previous
// queue untouched.
func (l *Lobby) SetRoomMaps(roomName domain.RoomName, maps []domain.Map) (MapsResult, error) {
	roomName = clampRoomName(roomName)
	room, ok := l.Rooms.Get(roomName)
	if !ok {
		return MapsResult{}, domain.ErrRoomNotFound
	}
	if !domain.ValidMaps(maps) {
		return MapsResult{}, domain.ErrInvalidMapData
	}
	room.ReplaceMaps(maps)
	log.Info().Str("module", "app.lobby").Str("room", string(roomName)).Int("maps", len(maps)).Msg("replaced room maps")
	return MapsResult{Maps: maps, Roster: room.Roster()}, nil
}
