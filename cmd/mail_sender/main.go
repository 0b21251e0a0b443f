package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"identity_service/internal/config"
	"identity_service/internal/lib/i18n"
	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/mailsender"
	"identity_service/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad("./config/config.yaml")
	log := setupLogger(cfg.Env)

	log.Info("starting mail_sender", slog.String("env", cfg.Env))

	if err := startConsumer(ctx, cfg, log); err != nil {
		log.Error("mail_sender failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service gracefully stopped")
}

func startConsumer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	r, err := rabbitmq.New(log, cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer r.Close()

	tr, err := i18n.New()
	if err != nil {
		return err
	}

	m := mailsender.New(
		log,
		mailsender.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		tr,
		cfg.SMTP.From,
		cfg.SMTP.LinkBase,
	)

	log.Info("consumer started", slog.String("queue", cfg.RabbitMQ.QueueName))

	return r.StartReading(ctx, m.Handle)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
