package tz_data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/fetch"
)

func TestOnRunTzData_CacheOrFetch(t *testing.T) {
	// --- Arrange ---
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("\"Etc/UTC\",\"UTC0\"\n"))
	}))
	t.Cleanup(srv.Close)
	client := fetch.New(5 * time.Second)
	t.Cleanup(func() { _ = client.Close() })
	env := &buildenv.Env{BuildRoot: t.TempDir(), Downloader: client}
	input := &Input{URL: srv.URL + "/zones.csv"}

	// --- Act ---
	first, err := OnRunTzData(context.Background(), env, input)
	require.NoError(t, err)
	_, err = OnRunTzData(context.Background(), env, input)
	require.NoError(t, err)

	// --- Assert ---
	want := filepath.Join(env.BuildRoot, "timezone_data", "zones.csv")
	assert.Equal(t, []string{want}, first.Artifacts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Etc/UTC")
}

func TestOnRunTzData_DownloadError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	client := fetch.New(5 * time.Second)
	t.Cleanup(func() { _ = client.Close() })
	env := &buildenv.Env{BuildRoot: t.TempDir(), Downloader: client}

	_, err := OnRunTzData(context.Background(), env, &Input{URL: srv.URL + "/zones.csv"})

	require.Error(t, err)
	assert.False(t, buildenv.IsSoftStop(err))
	assert.NoFileExists(t, filepath.Join(env.BuildRoot, "timezone_data", "zones.csv"))
}
