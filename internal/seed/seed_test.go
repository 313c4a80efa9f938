package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetUpdate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	body := `version: "1"
update:
  provider: https
  manifest_url: https://updates.example.com/manifest.json
  check_frequency: 12h
  download_dir: /tmp/downloads
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	config, err := GetUpdate(path)
	require.NoError(t, err)
	require.NotNil(t, config)
	require.Equal(t, "https", config.Provider)
	require.Equal(t, "https://updates.example.com/manifest.json", config.ManifestURL)
	require.Equal(t, "12h", config.CheckFrequency)
}

func TestGetUpdateMissing(t *testing.T) {
	t.Parallel()

	_, err := GetUpdate(filepath.Join(t.TempDir(), "seed.yaml"))
	require.True(t, IsMissing(err))
}

func TestGetUpdateInvalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{
			name: "Invalid YAML",
			body: "update: [not a mapping",
		},
		{
			name: "Invalid provider",
			body: "update:\n  provider: carrier-pigeon\n  check_frequency: 6h\n",
		},
		{
			name: "Invalid frequency",
			body: "update:\n  provider: https\n  manifest_url: https://x\n  check_frequency: often\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "seed.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))

			_, err := GetUpdate(path)
			require.Error(t, err)
		})
	}
}
