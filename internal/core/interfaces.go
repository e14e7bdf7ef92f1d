package core

// Frame is one serialized outbound event.
type Frame []byte

// Sender abstracts the transport endpoint of one connection.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(Frame) error
	Close()
}
