package service

import (
	"log/slog"
	"os"
	"testing"

	"github.com/YoonKyungHan/baseball/internal/protocol"
	"github.com/YoonKyungHan/baseball/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct{}

func (*stubConn) Send(_ protocol.Notification) error { return nil }

func newTestRegistry() (*Registry, *repository.PlayerStore) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	players := repository.NewPlayerStore()

	return NewRegistry(logger, players), players
}

func TestRegistry_Register(t *testing.T) {
	t.Run("Assigns sequential ids to new players", func(t *testing.T) {
		registry, _ := newTestRegistry()

		alice := registry.Register(&stubConn{}, "", "alice")
		bob := registry.Register(&stubConn{}, "", "bob")

		assert.Equal(t, "player_1", alice.ID)
		assert.Equal(t, "player_2", bob.ID)
	})

	t.Run("Repeated join on the same connection keeps the identity", func(t *testing.T) {
		registry, _ := newTestRegistry()
		conn := &stubConn{}

		first := registry.Register(conn, "", "alice")
		second := registry.Register(conn, first.ID, "alice renamed")

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "alice renamed", second.Name)
	})

	t.Run("Reconnect by name reclaims a disconnected player", func(t *testing.T) {
		registry, _ := newTestRegistry()

		alice := registry.Register(&stubConn{}, "", "alice")
		registry.Disconnect(alice)

		// When: a fresh connection joins with the same name
		again := registry.Register(&stubConn{}, "", "alice")

		// Then: the old record is reused, not duplicated
		assert.Equal(t, alice.ID, again.ID)
		assert.True(t, again.IsConnected())
	})
}

func TestRegistry_EvictIfDisconnected(t *testing.T) {
	t.Run("Removes a player who stayed offline", func(t *testing.T) {
		registry, players := newTestRegistry()

		alice := registry.Register(&stubConn{}, "", "alice")
		registry.Disconnect(alice)

		evicted := registry.EvictIfDisconnected(alice.ID)

		require.True(t, evicted)
		_, err := players.GetByID(alice.ID)
		assert.Error(t, err)
	})

	t.Run("Keeps a player who reconnected", func(t *testing.T) {
		registry, players := newTestRegistry()

		alice := registry.Register(&stubConn{}, "", "alice")
		registry.Disconnect(alice)
		registry.Register(&stubConn{}, "", "alice")

		evicted := registry.EvictIfDisconnected(alice.ID)

		assert.False(t, evicted)
		_, err := players.GetByID(alice.ID)
		assert.NoError(t, err)
	})
}

func TestRegistry_Online(t *testing.T) {
	registry, _ := newTestRegistry()

	alice := registry.Register(&stubConn{}, "", "alice")
	registry.Register(&stubConn{}, "", "bob")
	registry.RegisterBot("room_1", "AI")
	registry.Disconnect(alice)

	online := registry.Online()

	// Only bob has a live connection; bots never count.
	require.Len(t, online, 1)
	assert.Equal(t, "bob", online[0].Name)
}
