package release

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesRepository(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		repository string
		wantErr    bool
	}{
		{
			name:       "valid slug",
			repository: "whistle-ai/whistle",
			wantErr:    false,
		},
		{
			name:       "missing name",
			repository: "whistle-ai/",
			wantErr:    true,
		},
		{
			name:       "missing owner",
			repository: "/whistle",
			wantErr:    true,
		},
		{
			name:       "no separator",
			repository: "whistle",
			wantErr:    true,
		},
		{
			name:       "too many parts",
			repository: "a/b/c",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := NewClient(tt.repository)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, errInvalidRepository)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.repository, client.Repository())
		})
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/whistle-ai/whistle/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"tag_name": "v0.3.0",
			"assets": [
				{"name": "whistle_0.3.0_linux_amd64.tar.gz", "browser_download_url": "https://example.com/a", "size": 42},
				{"name": "checksums.txt", "browser_download_url": "https://example.com/b", "size": 7}
			]
		}`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient("whistle-ai/whistle", WithBaseURL(server.URL+"/"))
	require.NoError(t, err)

	release, err := client.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v0.3.0", release.TagName)
	require.Len(t, release.Assets, 2)
	require.Equal(t, "whistle_0.3.0_linux_amd64.tar.gz", release.Assets[0].Name)
	require.Equal(t, int64(42), release.Assets[0].Size)
	require.Equal(t, "https://example.com/a", release.Assets[0].URL)
}

func TestByTag(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/whistle-ai/whistle/releases/tags/v0.2.1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"tag_name": "v0.2.1",
			"assets": [
				{"name": "linux-amd64-whistle", "browser_download_url": "https://example.com/c", "size": 9}
			]
		}`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient("whistle-ai/whistle", WithBaseURL(server.URL+"/"))
	require.NoError(t, err)

	release, err := client.ByTag(context.Background(), "v0.2.1")
	require.NoError(t, err)
	require.Equal(t, "v0.2.1", release.TagName)
	require.Len(t, release.Assets, 1)
	require.Equal(t, "linux-amd64-whistle", release.Assets[0].Name)
}

func TestDownload(t *testing.T) {
	t.Parallel()

	const payload = "binary bytes"

	mux := http.NewServeMux()
	mux.HandleFunc("/asset", func(w http.ResponseWriter, r *http.Request) {
		// Send the client through a redirect the way GitHub asset URLs do.
		http.Redirect(w, r, "/real-asset", http.StatusFound)
	})
	mux.HandleFunc("/real-asset", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, payload)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient("whistle-ai/whistle")
	require.NoError(t, err)

	destPath := filepath.Join(t.TempDir(), "whistle")

	written, err := client.Download(context.Background(), Asset{
		Name: "whistle",
		URL:  server.URL + "/asset",
	}, destPath)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), written)

	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	require.Equal(t, payload, string(data))
}

func TestDownloadRejectsBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient("whistle-ai/whistle")
	require.NoError(t, err)

	_, err = client.Download(context.Background(), Asset{
		Name: "whistle",
		URL:  server.URL + "/missing",
	}, filepath.Join(t.TempDir(), "whistle"))
	require.Error(t, err)
	require.ErrorIs(t, err, errUnexpectedStatus)
}
