package cli

import (
	"go.uber.org/zap"

	"github.com/JustinTDCT/OralVault/internal/cache"
	"github.com/JustinTDCT/OralVault/internal/config"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
)

// newNotifier builds the revalidation chain shared by every write path: the hub drops
// cached reads from store and pushes websocket events, and a configured webhook also
// receives the paths. The returned func flushes pending webhook deliveries.
func newNotifier(cfg *config.Config, store cache.Store, logger *zap.Logger) (*revalidate.Hub, revalidate.Notifier, func()) {
	hub := revalidate.NewHub(store, cfg.CORSOrigins, logger.Named("revalidate"))
	if cfg.RevalidateWebhook == "" {
		return hub, hub, hub.Close
	}
	wh := revalidate.NewWebhook(cfg.RevalidateWebhook, cfg.RevalidateSecret, logger.Named("webhook"))
	return hub, revalidate.Fanout{hub, wh}, func() {
		wh.Close()
		hub.Close()
	}
}
