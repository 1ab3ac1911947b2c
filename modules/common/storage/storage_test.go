package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satura-server/modules/common/config"
	"satura-server/modules/common/database"
)

func newTestStorage(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	db, err := database.NewClient(&config.Config{SupabaseURL: server.URL, SupabaseServiceKey: "service-key"})
	require.NoError(t, err)
	return NewClient(db, server.URL)
}

func TestDownloadObject(t *testing.T) {
	client := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/renders/u1/my clip.webm", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "video/webm")
		w.Write([]byte("webm-bytes"))
	})

	object, err := client.DownloadObject(context.Background(), "renders", "u1/my clip.webm")
	require.NoError(t, err)
	assert.Equal(t, []byte("webm-bytes"), object.Data)
	assert.Equal(t, "video/webm", object.ContentType)
}

func TestDownloadObject_Missing(t *testing.T) {
	client := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
	})

	_, err := client.DownloadObject(context.Background(), "renders", "u1/gone.mp4")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDownloadObject_Empty(t *testing.T) {
	client := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.DownloadObject(context.Background(), "renders", "u1/empty.mp4")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "u1/my%20clip.mp4", escapePath("/u1/my clip.mp4"))
	assert.Equal(t, "a/b/c.mp4", escapePath("a/b/c.mp4"))
}
