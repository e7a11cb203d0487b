package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fourwheels-backend/config"
	_ "fourwheels-backend/docs" // Important for Swagger
	v1 "fourwheels-backend/internal/delivery/http/v1"
	"fourwheels-backend/internal/usecase"
	"fourwheels-backend/pkg/attachment"
	"fourwheels-backend/pkg/database"
	"fourwheels-backend/pkg/email"
	"fourwheels-backend/pkg/logger"
	"fourwheels-backend/pkg/ratelimit"
	"fourwheels-backend/pkg/redis"
	"fourwheels-backend/pkg/security"
	"fourwheels-backend/pkg/security/antivirus"
	"fourwheels-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           4 KÓŁKA Contact API
// @version         1.0
// @description     Contact form submission endpoint for the 4 KÓŁKA workshop website.
// @host            localhost:4000
// @BasePath        /api
func main() {
	startedAt := time.Now()

	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting contact backend", "port", cfg.Port, "rate_limit_store", cfg.RateLimitStore)
	secLogger := security.InitSecurityLogger("fourwheels-backend", cfg.GinMode)
	defer secLogger.Sync()

	// 3. Setup Rate Limit Store
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, storeCheck, err := newRateLimitStore(ctx, cfg)
	if err != nil {
		logger.Log.Error("Failed to set up rate limit store", "store", cfg.RateLimitStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 4. Setup Email Service
	transport := email.NewTransport(email.Config{
		Kind:     cfg.MailTransport,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Security: email.ParseSecurity(cfg.SMTPSecure),
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Timeout:  cfg.SMTPTimeout,
	}, logger.Log)

	recipients := make([]email.Address, 0, len(cfg.MailTo))
	for _, to := range cfg.MailTo {
		recipients = append(recipients, email.Address{Email: to})
	}
	mailer := email.NewService(transport, email.Address{Name: cfg.MailFromName, Email: cfg.MailFrom}, recipients...)

	// 5. Setup Attachment Scanner
	scanner := antivirus.New(cfg.ClamAVAddress, cfg.ClamAVTimeout)
	if clam, ok := scanner.(*antivirus.ClamAVScanner); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := clam.Ping(pingCtx); err != nil {
			// Scans fail closed, so attachments are refused until clamd is back.
			logger.Log.Warn("ClamAV not reachable", "address", cfg.ClamAVAddress, "error", err)
		}
		cancel()
	}

	// 6. Setup UseCases
	contactUC := usecase.NewContactUsecase(mailer, validation.New(), attachment.DefaultPolicy(), scanner, secLogger)

	checks := map[string]usecase.HealthCheck{}
	if storeCheck != nil {
		checks["ratelimit"] = storeCheck
	}
	if clam, ok := scanner.(*antivirus.ClamAVScanner); ok {
		checks["clamav"] = clam.Ping
	}
	healthUC := usecase.NewHealthUsecase(checks, 3*time.Second)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:      contactUC,
		HealthUC:       healthUC,
		RateLimitStore: store,
		SecLogger:      secLogger,
		Config:         cfg,
		StartedAt:      startedAt,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

// newRateLimitStore opens the bucket store named by RATE_LIMIT_STORE. The
// returned func releases it; the check is nil for the in-process store.
func newRateLimitStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, func(), usecase.HealthCheck, error) {
	switch cfg.RateLimitStore {
	case ratelimit.KindMemory, "":
		store := ratelimit.NewMemoryStore(5 * time.Minute)
		return store, func() { _ = store.Close() }, nil, nil

	case ratelimit.KindRedis:
		if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
			return nil, nil, nil, err
		}
		store := ratelimit.NewRedisStore(redis.Client(), "")
		return store, func() { _ = redis.Close() }, redis.HealthCheck, nil

	case ratelimit.KindSQLite:
		store, err := ratelimit.OpenSQLite(ctx, cfg.RateLimitDBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		go purgeExpired(ctx, store, max(cfg.RateLimitWindow, cfg.FormRateLimitWindow))
		return store, func() { _ = store.Close() }, store.Ping, nil

	case ratelimit.KindPostgres:
		pool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			return nil, nil, nil, err
		}
		store, err := ratelimit.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return store, pool.Close, pool.Ping, nil
	}
	return nil, nil, nil, ratelimit.ErrUnknownKind{Kind: cfg.RateLimitStore}
}

// purgeExpired drops buckets whose window has passed so the file stays small.
func purgeExpired(ctx context.Context, store *ratelimit.SQLiteStore, window time.Duration) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Purge(ctx, window, now)
			if err != nil {
				logger.Log.Warn("Rate limit purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Log.Debug("Rate limit buckets purged", "count", n)
			}
		}
	}
}
