package domain

type RoomName string

const MaxRoomNameLen = 36

// Peer is a directory registration: a signaling identity bound to one
// connection. Kind is client-declared and opaque to the server.
type Peer struct {
	ID   PeerID `json:"peerId"`
	Kind string `json:"peerType,omitempty"`
}
