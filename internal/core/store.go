package core

import (
	"sync"

	"github.com/p2parena/lobbyd/internal/domain"
)

// RoomStore is the process-wide room registry. Rooms are created on
// demand and evicted the moment they are empty; a zero-member room is
// never observable through Get.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[domain.RoomName]*Room)}
}

func (s *RoomStore) GetOrCreate(name domain.RoomName) *Room {
	s.mu.RLock()
	room, ok := s.rooms[name]
	s.mu.RUnlock()
	if ok {
		return room
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok = s.rooms[name]; ok {
		return room
	}
	room = NewRoom(name)
	s.rooms[name] = room
	return room
}

func (s *RoomStore) Get(name domain.RoomName) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[name]
	return room, ok
}

// RemoveIfEmpty evicts the named room when it has no members. An
// absent room counts as removed.
func (s *RoomStore) RemoveIfEmpty(name domain.RoomName) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[name]
	if !ok {
		return true
	}
	if !room.closeIfEmpty() {
		return false
	}
	delete(s.rooms, name)
	return true
}

// All snapshots every live room. Used by cleanup paths that only know
// a connection id, not a room name.
func (s *RoomStore) All() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out
}

// RoomsOf returns the rooms a connection is currently a member of.
func (s *RoomStore) RoomsOf(connID domain.ConnID) []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Room
	for _, room := range s.rooms {
		if room.Has(connID) {
			out = append(out, room)
		}
	}
	return out
}

type RoomInfo struct {
	Name    domain.RoomName `json:"name"`
	Members int             `json:"memberCount"`
}

func (s *RoomStore) List() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for name, room := range s.rooms {
		out = append(out, RoomInfo{Name: name, Members: room.Size()})
	}
	return out
}
