package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rafaeldmoura/pontual/libs/config"
	"github.com/rafaeldmoura/pontual/libs/db"
	"github.com/rafaeldmoura/pontual/libs/httpx"
	"github.com/rafaeldmoura/pontual/libs/kafkax"
	otelx "github.com/rafaeldmoura/pontual/libs/otel"
	"github.com/rafaeldmoura/pontual/libs/runtime"
	"github.com/rafaeldmoura/pontual/services/mailer-service/internal/consumer"
	"github.com/rafaeldmoura/pontual/services/mailer-service/internal/email"
	"github.com/rafaeldmoura/pontual/services/mailer-service/internal/inbox"
	"github.com/rafaeldmoura/pontual/services/mailer-service/internal/mail"
)

func main() {
	service := config.String("SERVICE_NAME", "mailer-service")
	port, err := config.Port("PORT", "8081")
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

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	sender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@pontual.local"),
	)

	consumerCfg := consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "mailer-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "booking.appointment.cancelled.v1"),
	}
	eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
		var evt mail.CancellationEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid cancellation payload", "err", err)
			return nil
		}
		if evt.AppointmentID == "" || evt.ProviderEmail == "" {
			logger.Error("missing cancellation fields", "appointment_id", evt.AppointmentID)
			return nil
		}

		if err := sender.Send(evt.ProviderEmail, mail.CancellationSubject, mail.CancellationBody(evt)); err != nil {
			logger.Error("cancellation mail failed", "err", err, "appointment_id", evt.AppointmentID)
			return err
		}
		logger.Info("cancellation mail sent", "appointment_id", evt.AppointmentID, "recipient", evt.ProviderEmail)
		return nil
	})
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "mailer")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
