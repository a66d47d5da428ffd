package revalidate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_DeliversPathsWithSecret(t *testing.T) {
	var (
		mu      sync.Mutex
		got     [][]string
		secrets []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		got = append(got, p.Paths)
		secrets = append(secrets, r.Header.Get("X-Revalidate-Secret"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "s3cret", nil)
	wh.Revalidate(context.Background(), "/interviews", "/interviews/4")
	wh.Revalidate(context.Background())
	wh.Revalidate(context.Background(), "/matrix")
	wh.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]string{{"/interviews", "/interviews/4"}, {"/matrix"}}, got)
	assert.Equal(t, []string{"s3cret", "s3cret"}, secrets)
}

func TestWebhook_ErrorStatusDoesNotStopDelivery(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "", nil)
	wh.Revalidate(context.Background(), "/a")
	wh.Revalidate(context.Background(), "/b")
	wh.Close()
	wh.Close()

	assert.Equal(t, int32(2), calls.Load())
}

func TestWebhook_RevalidateAfterCloseIsDropped(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "", nil)
	wh.Close()
	assert.NotPanics(t, func() { wh.Revalidate(context.Background(), "/interviews") })
	assert.Zero(t, calls.Load())
}

func TestWebhook_ConcurrentRevalidateAndClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "", nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				wh.Revalidate(context.Background(), "/matrix")
			}
		}()
	}
	wh.Close()
	wg.Wait()
}

func TestFanout(t *testing.T) {
	var a, b Recorder
	Fanout{&a, &b}.Revalidate(context.Background(), "/institutions")
	assert.Equal(t, []string{"/institutions"}, a.Paths())
	assert.Equal(t, []string{"/institutions"}, b.Paths())
}
