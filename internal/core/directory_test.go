package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2parena/lobbyd/internal/domain"
)

type fakeSender struct {
	frames []Frame
}

func (f *fakeSender) TrySend(fr Frame) error {
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSender) Close() {}

func TestDirectoryRegisterPeer(t *testing.T) {
	d := NewDirectory()
	d.Add("c1", &fakeSender{})
	d.Add("c2", &fakeSender{})

	require.NoError(t, d.RegisterPeer("c1", domain.Peer{ID: "alpha", Kind: "host"}))
	err := d.RegisterPeer("c2", domain.Peer{ID: "alpha"})
	assert.ErrorIs(t, err, domain.ErrPeerTaken)

	_, ok := d.PeerSender("alpha")
	assert.True(t, ok)
	_, ok = d.PeerSender("beta")
	assert.False(t, ok)
}

func TestDirectoryRegisterPeerUnknownConn(t *testing.T) {
	d := NewDirectory()
	err := d.RegisterPeer("ghost", domain.Peer{ID: "alpha"})
	assert.ErrorIs(t, err, ErrConnGone)
}

func TestDirectoryRemoveReturnsRegistration(t *testing.T) {
	d := NewDirectory()
	d.Add("c1", &fakeSender{})
	require.NoError(t, d.RegisterPeer("c1", domain.Peer{ID: "alpha"}))

	peer, had := d.Remove("c1")
	assert.True(t, had)
	assert.Equal(t, domain.PeerID("alpha"), peer.ID)

	// idempotent: the second removal finds nothing
	_, had = d.Remove("c1")
	assert.False(t, had)
	assert.Empty(t, d.Peers())
	assert.Zero(t, d.Len())
}

func TestDirectoryRemoveWithoutRegistration(t *testing.T) {
	d := NewDirectory()
	d.Add("c1", &fakeSender{})
	_, had := d.Remove("c1")
	assert.False(t, had)
	assert.Zero(t, d.Len())
}

func TestDirectoryOthersExcludesSelf(t *testing.T) {
	d := NewDirectory()
	d.Add("c1", &fakeSender{})
	d.Add("c2", &fakeSender{})
	d.Add("c3", &fakeSender{})

	others := d.Others("c1")
	require.Len(t, others, 2)
	for _, snap := range others {
		assert.NotEqual(t, domain.ConnID("c1"), snap.ID)
	}
}

func TestDirectoryResolveSkipsMissingAndSelf(t *testing.T) {
	d := NewDirectory()
	d.Add("c1", &fakeSender{})
	d.Add("c2", &fakeSender{})

	snaps := d.Resolve([]domain.ConnID{"c1", "c2", "gone"}, "c1")
	require.Len(t, snaps, 1)
	assert.Equal(t, domain.ConnID("c2"), snaps[0].ID)
}
