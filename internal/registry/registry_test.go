package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/chess-duels/internal/lichess"
	"github.com/mauv0809/chess-duels/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRegistry(t *testing.T) (*Service, *lichess.MockClient) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client := lichess.NewMockClient()
	svc := New(st, client)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, client
}

func TestRegister(t *testing.T) {
	svc, _ := setupRegistry(t)
	ctx := context.Background()

	t.Run("valid username", func(t *testing.T) {
		u, err := svc.Register(ctx, "  alice ")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.NotEmpty(t, u.ID)
		assert.Nil(t, u.Lichess)
	})

	t.Run("duplicate differs only in case", func(t *testing.T) {
		_, err := svc.Register(ctx, "ALICE")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("invalid usernames", func(t *testing.T) {
		for _, name := range []string{"", "ab", "has space", "dash-name", "waytoolongusernamethatbreaks"} {
			_, err := svc.Register(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidUsername, name)
		}
	})

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLink(t *testing.T) {
	svc, _ := setupRegistry(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob")
	require.NoError(t, err)

	u, err := svc.Link(ctx, "Alice", "alice_ext")
	require.NoError(t, err)
	require.NotNil(t, u.Lichess)
	assert.Equal(t, "alice_ext", u.Lichess.Username)
	linkedAt := u.Lichess.LinkedAt

	t.Run("handle taken by another user", func(t *testing.T) {
		_, err := svc.Link(ctx, "bob", "ALICE_EXT")
		assert.ErrorIs(t, err, ErrLichessLinked)
	})

	t.Run("relink same handle keeps link time", func(t *testing.T) {
		svc.now = func() time.Time { return linkedAt.Add(time.Hour) }
		u, err := svc.Link(ctx, "alice", "alice_ext")
		require.NoError(t, err)
		assert.Equal(t, linkedAt, u.Lichess.LinkedAt)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Link(ctx, "carol", "carol_ext")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("invalid handle", func(t *testing.T) {
		_, err := svc.Link(ctx, "bob", "not a handle")
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("unlink frees the handle", func(t *testing.T) {
		u, err := svc.Unlink(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, u.Lichess)

		u, err = svc.Link(ctx, "bob", "alice_ext")
		require.NoError(t, err)
		assert.Equal(t, "alice_ext", u.LichessUsername())
	})
}

func TestLinkWithToken(t *testing.T) {
	svc, client := setupRegistry(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice")
	require.NoError(t, err)

	client.AccountFunc = func(ctx context.Context, token string) (lichess.Account, error) {
		if token == "good" {
			return lichess.Account{Username: "Alice_Ext"}, nil
		}
		return lichess.Account{}, lichess.ErrInvalidToken
	}

	u, err := svc.LinkWithToken(ctx, "alice", "good")
	require.NoError(t, err)
	assert.Equal(t, "Alice_Ext", u.LichessUsername())

	_, err = svc.LinkWithToken(ctx, "alice", "bad")
	assert.True(t, errors.Is(err, lichess.ErrInvalidToken))
	assert.Equal(t, []string{"good", "bad"}, client.AccountCalls)
}
