package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Webhook forwards revalidated paths to an external site (typically the public front-end)
// so it can rebuild its own pages. Deliveries run on a background goroutine; a full queue
// drops the batch with a warning.
type Webhook struct {
	url    string
	secret string
	client *http.Client
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan []string
	done   chan struct{}
}

type webhookPayload struct {
	Paths     []string `json:"paths"`
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp"`
}

func NewWebhook(url, secret string, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		queue:  make(chan []string, 128),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Webhook) Revalidate(_ context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.logger.Debug("revalidation webhook closed, dropping paths", zap.Strings("paths", paths))
		return
	}
	select {
	case w.queue <- append([]string(nil), paths...):
	default:
		w.logger.Warn("revalidation webhook queue full, dropping paths", zap.Strings("paths", paths))
	}
}

// Close stops accepting paths and waits for queued deliveries. Paths sent after Close
// are dropped.
func (w *Webhook) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Webhook) run() {
	defer close(w.done)
	for paths := range w.queue {
		if err := w.post(paths); err != nil {
			w.logger.Warn("revalidation webhook failed", zap.Strings("paths", paths), zap.Error(err))
		}
	}
}

func (w *Webhook) post(paths []string) error {
	body, err := json.Marshal(webhookPayload{
		Paths:     paths,
		Source:    "oralvault",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set("X-Revalidate-Secret", w.secret)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Fanout calls every notifier in order.
type Fanout []Notifier

func (f Fanout) Revalidate(ctx context.Context, paths ...string) {
	for _, n := range f {
		n.Revalidate(ctx, paths...)
	}
}
