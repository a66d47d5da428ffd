package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinTDCT/OralVault/internal/api"
	"github.com/JustinTDCT/OralVault/internal/auth"
	"github.com/JustinTDCT/OralVault/internal/cache"
	"github.com/JustinTDCT/OralVault/internal/config"
	"github.com/JustinTDCT/OralVault/internal/db"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/translation"
	"github.com/JustinTDCT/OralVault/internal/version"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ver := version.Load()
	logger.Info("oralvault starting", zap.String("version", ver.Version), zap.String("commit", ver.Commit))

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database.DB, logger.Named("migrate")); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	cfg.MergeFromDB(ctx, database.DB, logger)

	store, closeStore, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var issuer *auth.Issuer
	if cfg.AuthEnabled() {
		issuer = auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	} else {
		logger.Warn("JWT_SECRET is empty, the API is open to anyone who can reach it")
	}

	var translator translation.Translator
	if cfg.TranslationEnabled() {
		g, err := translation.NewGenAI(ctx, cfg.TranslateAPIKey, cfg.TranslateModel)
		if err != nil {
			return fmt.Errorf("init translation model: %w", err)
		}
		translator = g
	} else {
		logger.Info("translation disabled, no model API key configured")
	}

	hub, notifier, closeNotifier := newNotifier(cfg, store, logger)
	defer closeNotifier()

	srv := api.NewServer(api.Options{
		Gateway:    gateway.NewPostgres(database.DB),
		Database:   database,
		Cache:      store,
		CacheTTL:   cfg.CacheTTL,
		Hub:        hub,
		Notifier:   notifier,
		Issuer:     issuer,
		AdminUser:  cfg.AdminUser,
		AdminHash:  cfg.AdminPasswordHash,
		Translator: translator,
		Translate: translation.Options{
			DefaultTarget: cfg.TranslateTarget,
			MaxChars:      cfg.TranslateMaxChars,
			PerSecond:     cfg.TranslateRate,
		},
		MaxUpload: cfg.MaxUpload,
		Origins:   cfg.CORSOrigins,
		Logger:    logger,
		Version:   ver,
	})

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.Int("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openCache picks Redis when REDIS_URL is set so every replica sees the same invalidations,
// and falls back to an in-process cache otherwise.
func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory read cache")
		return cache.NewMemory(), func() {}, nil
	}
	r, err := cache.NewRedis(cfg.RedisURL, "oralvault")
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("redis unreachable: %w", err)
	}
	logger.Info("using redis read cache")
	return r, func() { r.Close() }, nil
}
