// Package domain contains entity without logic, just meta-data
package domain

const MaxNicknameLen = 36

type (
	// ConnID is the opaque stable identifier of one live connection,
	// assigned by the transport adapter. It is the identity key of a
	// user inside a room.
	ConnID string

	// PeerID is the client-chosen signaling identity a connection may
	// register in the directory for targeted delivery.
	PeerID string
)

// User is one participant inside one room. The wire shape keeps the
// historical field name peerID for the connection identifier.
type User struct {
	ConnID   ConnID `json:"peerID"`
	Nickname string `json:"nickname"`
	Ready    bool   `json:"ready"`
	Leader   bool   `json:"leader"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(connID ConnID, nickname string, leader bool) *User {
	if len(nickname) > MaxNicknameLen {
		nickname = nickname[:MaxNicknameLen]
	}
	return &User{ConnID: connID, Nickname: nickname, Leader: leader}
}
