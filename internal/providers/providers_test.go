package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

var testManifestJSON = `{
	"latestVersionCode": 10,
	"latestVersionName": "2.0",
	"apkUrl": "https://example.com/app-v2.0.apk",
	"releaseNotes": "Bug fixes",
	"minRequiredVersionCode": 5
}`

func TestLoadUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), "carrier-pigeon", nil)
	require.Error(t, err)
}

func TestHTTPSProviderFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testManifestJSON))
	}))
	defer server.Close()

	provider, err := Load(context.Background(), "https", map[string]string{"manifest_url": server.URL})
	require.NoError(t, err)
	require.Equal(t, "https", provider.Type())

	manifest, err := provider.FetchManifest(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(10), manifest.LatestVersionCode)
	require.Equal(t, "2.0", manifest.LatestVersionName)
	require.Equal(t, "https://example.com/app-v2.0.apk", manifest.DownloadURL)
	require.NotNil(t, manifest.MinRequiredVersionCode)
	require.Equal(t, int64(5), *manifest.MinRequiredVersionCode)
}

func TestHTTPSProviderFetchGzip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer

		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(testManifestJSON))
		_ = gz.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	provider, err := Load(context.Background(), "https", map[string]string{"manifest_url": server.URL})
	require.NoError(t, err)

	manifest, err := provider.FetchManifest(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(10), manifest.LatestVersionCode)
}

func TestHTTPSProviderFetchErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "not here", http.StatusNotFound)
			},
		},
		{
			name: "Malformed payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>not json</html>"))
			},
		},
		{
			name: "Incomplete manifest",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"latestVersionCode": 10})
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tc.handler)
			defer server.Close()

			provider, err := Load(context.Background(), "https", map[string]string{"manifest_url": server.URL})
			require.NoError(t, err)

			_, err = provider.FetchManifest(context.Background())
			require.Error(t, err)
		})
	}
}

func TestHTTPSProviderRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), "https", nil)
	require.Error(t, err)
}

func TestFileProvider(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(testManifestJSON), 0o600))

	provider, err := Load(context.Background(), "file", map[string]string{"manifest_path": path})
	require.NoError(t, err)

	manifest, err := provider.FetchManifest(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(10), manifest.LatestVersionCode)

	// A missing manifest means the provider isn't available yet.
	provider, err = Load(context.Background(), "file", map[string]string{"manifest_path": filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)

	_, err = provider.FetchManifest(context.Background())
	require.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGithubProviderRequiresRepository(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), "github", map[string]string{"github_repository": "not-a-repo"})
	require.Error(t, err)
}
