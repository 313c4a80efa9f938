package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	s, err := LoadOrCreate(path)
	require.NoError(t, err)
	require.Equal(t, int64(-1), s.InstalledVersionCode)
	require.Equal(t, "https", s.Update.Provider)
	require.Equal(t, "6h", s.Update.CheckFrequency)

	// The file must exist on disk after creation.
	require.FileExists(t, path)
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	s, err := LoadOrCreate(path)
	require.NoError(t, err)

	s.InstalledVersionCode = 9
	s.Update.ManifestURL = "https://updates.example.com/manifest.json"
	require.NoError(t, s.Save())

	reloaded, err := LoadOrCreate(path)
	require.NoError(t, err)
	require.Equal(t, int64(9), reloaded.InstalledVersionCode)
	require.Equal(t, "https://updates.example.com/manifest.json", reloaded.Update.ManifestURL)
}
