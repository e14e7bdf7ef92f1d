package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/domain"
)

// ErrConnGone is returned when a registration races with disconnect
// cleanup and the connection is no longer tracked.
var ErrConnGone = errors.New("connection gone")

// ConnSnap pairs a connection id with its transport endpoint.
type ConnSnap struct {
	ID     domain.ConnID
	Sender Sender
}

type connEntry struct {
	sender Sender
	peer   domain.Peer // zero until the connection registers a peer id
}

// Directory tracks every live connection and the optional signaling
// peer identity each one has registered. It holds non-owning
// references; closing a Sender is the adapter's job.
type Directory struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
	peers map[domain.PeerID]domain.ConnID
}

func NewDirectory() *Directory {
	return &Directory{
		conns: make(map[domain.ConnID]*connEntry),
		peers: make(map[domain.PeerID]domain.ConnID),
	}
}

func (d *Directory) Add(connID domain.ConnID, s Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns[connID] = &connEntry{sender: s}
	log.Info().Str("module", "core.directory").Str("conn", string(connID)).Msg("connection added")
}

// Remove forgets a connection and any peer registration it held. The
// registered peer, if there was one, is returned so callers can notify
// the remaining connections. Removing an unknown connection is a no-op.
func (d *Directory) Remove(connID domain.ConnID) (domain.Peer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.conns[connID]
	if !ok {
		return domain.Peer{}, false
	}
	delete(d.conns, connID)
	if entry.peer.ID == "" {
		return domain.Peer{}, false
	}
	delete(d.peers, entry.peer.ID)
	log.Info().Str("module", "core.directory").Str("conn", string(connID)).Str("peer", string(entry.peer.ID)).Msg("peer removed")
	return entry.peer, true
}

// RegisterPeer binds a signaling identity to a connection. Peer ids
// are unique across the directory.
func (d *Directory) RegisterPeer(connID domain.ConnID, peer domain.Peer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.peers[peer.ID]; taken {
		return domain.ErrPeerTaken
	}
	entry, ok := d.conns[connID]
	if !ok {
		return ErrConnGone
	}
	if entry.peer.ID != "" {
		delete(d.peers, entry.peer.ID)
	}
	entry.peer = peer
	d.peers[peer.ID] = connID
	log.Info().Str("module", "core.directory").Str("conn", string(connID)).Str("peer", string(peer.ID)).Msg("peer registered")
	return nil
}

// Peers lists every registered signaling identity.
func (d *Directory) Peers() []domain.Peer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Peer, 0, len(d.peers))
	for _, connID := range d.peers {
		out = append(out, d.conns[connID].peer)
	}
	return out
}

// PeerSender resolves a peer id to its connection's endpoint.
func (d *Directory) PeerSender(peerID domain.PeerID) (Sender, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	connID, ok := d.peers[peerID]
	if !ok {
		return nil, false
	}
	return d.conns[connID].sender, true
}

// Others snapshots every connection except the given one.
func (d *Directory) Others(connID domain.ConnID) []ConnSnap {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ConnSnap, 0, len(d.conns))
	for id, entry := range d.conns {
		if id == connID {
			continue
		}
		out = append(out, ConnSnap{ID: id, Sender: entry.sender})
	}
	return out
}

// Resolve maps connection ids to live endpoints, skipping the given
// connection and any id that is no longer connected.
func (d *Directory) Resolve(ids []domain.ConnID, skip domain.ConnID) []ConnSnap {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ConnSnap, 0, len(ids))
	for _, id := range ids {
		if id == skip {
			continue
		}
		if entry, ok := d.conns[id]; ok {
			out = append(out, ConnSnap{ID: id, Sender: entry.sender})
		}
	}
	return out
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}
