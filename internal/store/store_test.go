package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duotasks/companiond/api/events"
	"github.com/duotasks/companiond/internal/triggers"
)

func TestPositions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "positions.json")

	s, err := LoadPositions(path)
	require.NoError(t, err)

	_, err = s.GetPosition(context.Background(), "alice", "Sunrise")
	require.Equal(t, triggers.ErrNotFound, err)

	position := events.Position{
		Name:      "Sunrise",
		OwnerID:   "alice",
		ImageName: "positions/alice/sunrise.jpg",
	}

	require.NoError(t, s.UpsertPosition(context.Background(), position))

	// An upsert for the same key replaces the record.
	position.ImageName = "positions/alice/sunrise-2.jpg"
	require.NoError(t, s.UpsertPosition(context.Background(), position))

	got, err := s.GetPosition(context.Background(), "alice", "Sunrise")
	require.NoError(t, err)
	require.Equal(t, "positions/alice/sunrise-2.jpg", got.ImageName)

	// Records without a key are rejected.
	require.Error(t, s.UpsertPosition(context.Background(), events.Position{Name: "Sunset"}))

	// The store reloads from disk.
	reloaded, err := LoadPositions(path)
	require.NoError(t, err)

	got, err = reloaded.GetPosition(context.Background(), "alice", "Sunrise")
	require.NoError(t, err)
	require.Equal(t, "positions/alice/sunrise-2.jpg", got.ImageName)

	// Deleting returns the record and removes it.
	got, err = reloaded.DeletePosition(context.Background(), "alice", "Sunrise")
	require.NoError(t, err)
	require.Equal(t, "positions/alice/sunrise-2.jpg", got.ImageName)

	_, err = reloaded.DeletePosition(context.Background(), "alice", "Sunrise")
	require.Equal(t, triggers.ErrNotFound, err)
}

func TestBlobs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	s, err := NewBlobs(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "positions/alice/sunrise.jpg", []byte("image data")))

	body, err := os.ReadFile(filepath.Join(root, "positions", "alice", "sunrise.jpg"))
	require.NoError(t, err)
	require.Equal(t, "image data", string(body))

	require.NoError(t, s.Delete(context.Background(), "positions/alice/sunrise.jpg"))

	// Deleting a missing blob reports ErrNotFound.
	require.Equal(t, triggers.ErrNotFound, s.Delete(context.Background(), "positions/alice/sunrise.jpg"))

	// Object names can't escape the root.
	require.Error(t, s.Put(context.Background(), "../escape", []byte("nope")))
	require.Error(t, s.Delete(context.Background(), "/etc/passwd"))
	require.Error(t, s.Delete(context.Background(), ""))
}

func TestProfiles(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profiles.json")

	s, err := LoadProfiles(path)
	require.NoError(t, err)

	_, err = s.PushToken(context.Background(), "alice")
	require.Equal(t, triggers.ErrNotFound, err)

	require.NoError(t, s.SetProfile(context.Background(), "alice", Profile{
		DisplayName: "Alice",
		PushToken:   "token-alice",
	}))

	token, err := s.PushToken(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "token-alice", token)

	name, err := s.DisplayName(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", name)

	// A profile without a token still reports ErrNotFound for the token.
	require.NoError(t, s.SetProfile(context.Background(), "bob", Profile{DisplayName: "Bob"}))

	_, err = s.PushToken(context.Background(), "bob")
	require.Equal(t, triggers.ErrNotFound, err)

	// The store reloads from disk.
	reloaded, err := LoadProfiles(path)
	require.NoError(t, err)

	token, err = reloaded.PushToken(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "token-alice", token)
}
