package core

import (
	"errors"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/p2parena/lobbyd/internal/domain"
)

// ErrRoomClosed is returned by Add when the room was evicted from the
// store between lookup and insertion. Callers re-resolve and retry.
var ErrRoomClosed = errors.New("room closed")

// Room is a threadsafe in-memory room. Membership keeps insertion
// order: the leader fallback on departure is the earliest remaining
// joiner. The room never touches adapter-owned transport resources.
type Room struct {
	name domain.RoomName

	mu      sync.Mutex
	users   *orderedmap.OrderedMap[domain.ConnID, *domain.User]
	maps    []domain.Map
	current int
	closed  bool
}

func NewRoom(name domain.RoomName) *Room {
	return &Room{
		name:  name,
		users: orderedmap.New[domain.ConnID, *domain.User](),
	}
}

func (r *Room) Name() domain.RoomName { return r.name }

func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users.Len()
}

func (r *Room) Has(connID domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users.Get(connID)
	return ok
}

// Roster returns a snapshot of the members in insertion order.
func (r *Room) Roster() []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked()
}

func (r *Room) rosterLocked() []domain.User {
	out := make([]domain.User, 0, r.users.Len())
	for pair := r.users.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, *pair.Value)
	}
	return out
}

// Add inserts a new member. The first member of a room becomes its
// leader. Returns ErrRoomFull when the room is at capacity; membership
// is left untouched in that case.
func (r *Room) Add(connID domain.ConnID, nickname string, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	if r.users.Len()+1 > capacity {
		return domain.ErrRoomFull
	}
	r.users.Set(connID, domain.NewUser(connID, nickname, r.users.Len() == 0))
	return nil
}

// Remove drops a member and, when the departing member led a still
// populated room, promotes the earliest remaining joiner. The returned
// roster reflects the room after removal.
func (r *Room) Remove(connID domain.ConnID) (removed domain.User, roster []domain.User, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users.Delete(connID)
	if !ok {
		return domain.User{}, r.rosterLocked(), false
	}
	if user.Leader {
		if next := r.users.Oldest(); next != nil {
			next.Value.Leader = true
		}
	}
	return *user, r.rosterLocked(), true
}

// ReadyOutcome reports the state after one readiness update. Start is
// true exactly when this update completed the vote.
type ReadyOutcome struct {
	Roster   []domain.User
	Start    bool
	MapIndex int
}

// SetReady flips one member's ready flag and evaluates the consensus:
// a room with more than one member where everyone is ready starts the
// current map. Ready flags are cleared on start so the next round is a
// fresh vote.
func (r *Room) SetReady(connID domain.ConnID, ready bool) (ReadyOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users.Get(connID)
	if !ok {
		return ReadyOutcome{}, domain.ErrNotInRoom
	}
	user.Ready = ready

	readyCount := 0
	for pair := r.users.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Ready {
			readyCount++
		}
	}
	out := ReadyOutcome{MapIndex: r.current}
	if r.users.Len() > 1 && readyCount == r.users.Len() {
		out.Start = true
		for pair := r.users.Oldest(); pair != nil; pair = pair.Next() {
			pair.Value.Ready = false
		}
	}
	out.Roster = r.rosterLocked()
	return out, nil
}

// Maps returns a snapshot of the play queue.
func (r *Room) Maps() []domain.Map {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Map, len(r.maps))
	copy(out, r.maps)
	return out
}

// ReplaceMaps swaps the play queue wholesale. Validation happens
// before the swap, at the service layer.
func (r *Room) ReplaceMaps(maps []domain.Map) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maps = maps
}

func (r *Room) CurrentMapIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// closeIfEmpty marks an empty room dead so late Adds against a stale
// pointer fail instead of resurrecting an evicted room.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users.Len() != 0 {
		return false
	}
	r.closed = true
	return true
}
