package app

import (
	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/core"
	"github.com/p2parena/lobbyd/internal/domain"
)

// Connect tracks a freshly accepted connection in the directory.
func (l *Lobby) Connect(connID domain.ConnID, s core.Sender) {
	l.Conns.Add(connID, s)
}

// RegisterPeer binds a signaling identity to a connection and returns
// the identities that were already registered, for the newcomer's
// opening roster.
func (l *Lobby) RegisterPeer(connID domain.ConnID, peer domain.Peer) ([]domain.Peer, error) {
	existing := l.Conns.Peers()
	if err := l.Conns.RegisterPeer(connID, peer); err != nil {
		return nil, err
	}
	return existing, nil
}

// PositionTargets resolves the connections that should receive a
// position update from the sender: the other members of the sender's
// rooms. A sender in no room yields no targets.
func (l *Lobby) PositionTargets(connID domain.ConnID) []core.ConnSnap {
	seen := make(map[domain.ConnID]struct{})
	var ids []domain.ConnID
	for _, room := range l.Rooms.RoomsOf(connID) {
		for _, user := range room.Roster() {
			if user.ConnID == connID {
				continue
			}
			if _, dup := seen[user.ConnID]; dup {
				continue
			}
			seen[user.ConnID] = struct{}{}
			ids = append(ids, user.ConnID)
		}
	}
	return l.Conns.Resolve(ids, "")
}

// Farewell is one room's view of a departure, ready to broadcast.
type Farewell struct {
	Room     domain.RoomName
	Nickname string
	Roster   []domain.User
}

type DisconnectResult struct {
	Rooms   []Farewell
	Peer    domain.Peer
	HadPeer bool
}

// Disconnect runs the full cleanup for a terminated connection: the
// connection is removed from every room it was in (the disconnect
// carries no room name, so all rooms are scanned), emptied rooms are
// evicted, leadership is handed over the same way an explicit leave
// does, and any directory registration is dropped. Calling it again,
// or for a connection that never joined anything, does nothing.
func (l *Lobby) Disconnect(connID domain.ConnID) DisconnectResult {
	var res DisconnectResult
	for _, room := range l.Rooms.All() {
		removed, roster, ok := room.Remove(connID)
		if !ok {
			continue
		}
		l.Rooms.RemoveIfEmpty(room.Name())
		res.Rooms = append(res.Rooms, Farewell{Room: room.Name(), Nickname: removed.Nickname, Roster: roster})
	}
	res.Peer, res.HadPeer = l.Conns.Remove(connID)
	if len(res.Rooms) > 0 || res.HadPeer {
		log.Info().Str("module", "app.lobby").Str("conn", string(connID)).Int("rooms", len(res.Rooms)).Bool("peer", res.HadPeer).Msg("disconnect cleanup")
	}
	return res
}
