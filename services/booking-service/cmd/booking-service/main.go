package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rafaeldmoura/pontual/libs/config"
	"github.com/rafaeldmoura/pontual/libs/db"
	"github.com/rafaeldmoura/pontual/libs/httpx"
	"github.com/rafaeldmoura/pontual/libs/kafkax"
	otelx "github.com/rafaeldmoura/pontual/libs/otel"
	"github.com/rafaeldmoura/pontual/libs/runtime"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/directory"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/handlers"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/outbox"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/scheduling"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	appointments := storage.NewAppointmentRepository(pool, outboxRepo)
	users := storage.NewUserRepository(pool)
	notifications := storage.NewNotificationRepository(pool)

	resolver, err := directory.NewResolver(logger, users, config.String("DIRECTORY_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("directory resolver init failed; using local users table", "err", err)
		resolver = users
	}

	svc := scheduling.NewService(appointments, resolver, notifications, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	sessionHandler := handlers.NewSessionHandler(users, logger, jwtSecret,
		time.Duration(config.Int("TOKEN_TTL_HOURS", 168))*time.Hour)
	appointmentHandler := handlers.NewAppointmentHandler(svc, logger)
	providerHandler := handlers.NewProviderHandler(users, logger)
	notificationHandler := handlers.NewNotificationHandler(notifications, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/sessions", sessionHandler.Create)
	mux.Handle("/api/v1/appointments", handlers.RequireAuth(jwtSecret, http.HandlerFunc(appointmentHandler.Handle)))
	mux.Handle("/api/v1/appointments/cancel", handlers.RequireAuth(jwtSecret, http.HandlerFunc(appointmentHandler.Cancel)))
	mux.Handle("/api/v1/providers", handlers.RequireAuth(jwtSecret, http.HandlerFunc(providerHandler.List)))
	mux.Handle("/api/v1/notifications", handlers.RequireAuth(jwtSecret, http.HandlerFunc(notificationHandler.List)))
	mux.Handle("/api/v1/notifications/read", handlers.RequireAuth(jwtSecret, http.HandlerFunc(notificationHandler.MarkRead)))

	rateLimit := rateLimitMiddleware(ctx, logger)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		corsMiddleware(),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 15))*time.Second),
		rateLimit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// corsMiddleware admits the browser client origins listed in
// CORS_ALLOWED_ORIGINS (comma-separated). Unset leaves CORS disabled,
// which suits deployments behind a same-origin proxy.
func corsMiddleware() httpx.Middleware {
	return httpx.WithCORS(httpx.CORSPolicy{
		AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", httpx.RequestIDHeader},
		MaxAge:         10 * time.Minute,
	})
}

// rateLimitMiddleware prefers the shared Redis limiter so replicas count
// against one window; without REDIS_ADDR it degrades to per-process.
func rateLimitMiddleware(ctx context.Context, logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_REQUESTS", 100)
	window := time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, falling back to in-memory rate limiting", "err", err)
		} else {
			logger.Info("redis rate limiter enabled", "addr", addr)
			return httpx.NewRedisRateLimiter(rdb, limit, window, "booking").Middleware(logger, true)
		}
	}
	return httpx.NewRateLimiter(limit, window).Middleware()
}
