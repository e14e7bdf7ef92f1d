package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/domain"
)

// signalMessage is the mesh-level relay shape used by the signaling
// clients themselves; the server only fills routing metadata.
type signalMessage struct {
	From    string        `json:"from"`
	Target  string        `json:"target"`
	Payload signalPayload `json:"payload"`
}

type signalPayload struct {
	Action      string        `json:"action"`
	Connections []domain.Peer `json:"connections,omitempty"`
	BePolite    bool          `json:"bePolite"`
	Message     string        `json:"message,omitempty"`
}

// handleReady registers the connection's signaling identity. The
// newcomer gets the current mesh roster, everyone else learns about
// the newcomer; the politeness flag breaks offer glare between the
// two sides.
func (ctl *Controller) handleReady(connID domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		PeerID domain.PeerID `json:"peerID"`
		Kind   string        `json:"peerType"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.PeerID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad ready payload")
		return
	}

	peer := domain.Peer{ID: p.PeerID, Kind: p.Kind}
	existing, err := ctl.Lobby.RegisterPeer(connID, peer)
	if errors.Is(err, domain.ErrPeerTaken) {
		ctl.sendEvent(c, "uniquenessError", struct {
			Message string `json:"message"`
		}{string(p.PeerID) + " is already connected to the signaling server. Please change your peer ID and try again."})
		c.Close()
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("peer registration failed")
		return
	}

	ctl.sendEvent(c, "message", signalMessage{
		From:    "all",
		Target:  string(p.PeerID),
		Payload: signalPayload{Action: "open", Connections: existing},
	})
	ctl.broadcastOthers(connID, "message", signalMessage{
		From:    string(p.PeerID),
		Target:  "all",
		Payload: signalPayload{Action: "open", Connections: []domain.Peer{peer}, BePolite: true},
	})
}

// handleMessage relays an arbitrary signaling payload to every other
// connection, verbatim.
func (ctl *Controller) handleMessage(connID domain.ConnID, data []byte) {
	for _, snap := range ctl.Lobby.Conns.Others(connID) {
		ctl.sendEvent(snap.Sender, "message", json.RawMessage(data))
	}
}

// handleMessageOne delivers a payload to the one connection whose
// registered peer id matches the target. A missing target is not an
// error: the sender cannot know a peer's liveness.
func (ctl *Controller) handleMessageOne(connID domain.ConnID, data []byte) {
	var p struct {
		Target domain.PeerID `json:"target"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad messageOne payload")
		return
	}
	sender, ok := ctl.Lobby.Conns.PeerSender(p.Target)
	if !ok {
		log.Info().Str("module", "signal").Str("target", string(p.Target)).Msg("target not found")
		return
	}
	ctl.sendEvent(sender, "message", json.RawMessage(data))
}

// handlePositions forwards a position update, tagged with the sender,
// to the other members of the sender's rooms.
func (ctl *Controller) handlePositions(connID domain.ConnID, data []byte) {
	targets := ctl.Lobby.PositionTargets(connID)
	if len(targets) == 0 {
		log.Debug().Str("module", "signal").Str("conn", string(connID)).Msg("positions from connection outside any room")
		return
	}
	payload := struct {
		PeerID    domain.ConnID   `json:"peerID"`
		Positions json.RawMessage `json:"positions"`
	}{connID, data}
	for _, snap := range targets {
		ctl.sendEvent(snap.Sender, "player-positions", payload)
	}
}

// handleDisconnect runs once when the read pump exits, for any reason.
func (ctl *Controller) handleDisconnect(connID domain.ConnID) {
	res := ctl.Lobby.Disconnect(connID)
	ctl.limiter.Forget(connID)

	for _, farewell := range res.Rooms {
		ctl.broadcastRoster(farewell.Roster, connID, "user-left", rosterPayload{
			Nickname: farewell.Nickname,
			Users:    farewell.Roster,
		})
	}
	if res.HadPeer {
		log.Info().Str("module", "signal").Str("conn", string(connID)).Str("peer", string(res.Peer.ID)).Msg("disconnected")
		ctl.broadcastOthers(connID, "message", signalMessage{
			From:    string(res.Peer.ID),
			Target:  "all",
			Payload: signalPayload{Action: "close", Message: "Peer has left the signaling server"},
		})
	}
}
