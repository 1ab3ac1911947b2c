package fal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_RelaysBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a cat", body["prompt"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"images":[{"url":"https://cdn/x.png"}]}`))
	}))
	defer server.Close()

	client := NewClient(Options{Key: "test-key"})
	body, err := client.Run(context.Background(), server.URL, map[string]string{"prompt": "a cat"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"images":[{"url":"https://cdn/x.png"}]}`, string(body))
}

func TestRun_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`prompt rejected`))
	}))
	defer server.Close()

	client := NewClient(Options{Key: "test-key"})
	_, err := client.Run(context.Background(), server.URL, map[string]string{})

	var upstreamErr *UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusUnprocessableEntity, upstreamErr.StatusCode)
	assert.Equal(t, "prompt rejected", upstreamErr.Error())
}

func TestRun_MissingKey(t *testing.T) {
	client := NewClient(Options{Key: "  "})
	_, err := client.Run(context.Background(), "http://127.0.0.1:1", nil)

	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestUpstreamError_EmptyBody(t *testing.T) {
	err := &UpstreamError{StatusCode: 502}
	assert.Equal(t, "fal API error: status 502", err.Error())
}

func newQueueServer(t *testing.T, pendingPolls int32, resultStatus int, result string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/bria/video/background-removal":
			assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(QueueSubmission{
				RequestID:   "req-123",
				StatusURL:   server.URL + "/bria/video/requests/req-123/status",
				ResponseURL: server.URL + "/bria/video/requests/req-123",
			})
		case r.URL.Path == "/bria/video/requests/req-123/status":
			n := atomic.AddInt32(&polls, 1)
			if n <= pendingPolls {
				w.WriteHeader(http.StatusAccepted)
				json.NewEncoder(w).Encode(QueueStatus{Status: StatusInProgress})
				return
			}
			json.NewEncoder(w).Encode(QueueStatus{Status: StatusCompleted})
		case r.URL.Path == "/bria/video/requests/req-123":
			w.WriteHeader(resultStatus)
			w.Write([]byte(result))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server, &polls
}

func TestSubscribe_PollsUntilCompleted(t *testing.T) {
	server, polls := newQueueServer(t, 2, http.StatusOK, `{"video":{"url":"https://cdn/out.webm"}}`)
	defer server.Close()

	client := NewClient(Options{Key: "test-key", QueueURL: server.URL, PollInterval: time.Millisecond})
	result, err := client.Subscribe(context.Background(), "bria/video/background-removal", map[string]string{"video_url": "https://v"})

	require.NoError(t, err)
	assert.Equal(t, "req-123", result.RequestID)
	assert.JSONEq(t, `{"video":{"url":"https://cdn/out.webm"}}`, string(result.Data))
	assert.Equal(t, int32(3), atomic.LoadInt32(polls))
}

func TestSubscribe_ResultError(t *testing.T) {
	server, _ := newQueueServer(t, 0, http.StatusUnprocessableEntity, `{"detail":"video too long"}`)
	defer server.Close()

	client := NewClient(Options{Key: "test-key", QueueURL: server.URL, PollInterval: time.Millisecond})
	_, err := client.Subscribe(context.Background(), "bria/video/background-removal", map[string]string{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "video too long")
}

func TestSubscribe_SubmitError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer server.Close()

	client := NewClient(Options{Key: "test-key", QueueURL: server.URL})
	_, err := client.Subscribe(context.Background(), "bria/video/background-removal", map[string]string{})

	var upstreamErr *UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
}

func TestSubscribe_ContextCancelled(t *testing.T) {
	server, _ := newQueueServer(t, 1000, http.StatusOK, `{}`)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient(Options{Key: "test-key", QueueURL: server.URL, PollInterval: 5 * time.Millisecond})
	_, err := client.Subscribe(ctx, "bria/video/background-removal", map[string]string{})

	require.Error(t, err)
}
