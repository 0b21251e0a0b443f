package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"identity_service/internal/auth"
	"identity_service/internal/auth/token"
	"identity_service/internal/config"
	grpcserver "identity_service/internal/grpc_server"
	"identity_service/internal/http_server/handlers/forgotpassword"
	"identity_service/internal/http_server/handlers/introspect"
	"identity_service/internal/http_server/handlers/refresh"
	"identity_service/internal/http_server/handlers/resetpassword"
	"identity_service/internal/http_server/handlers/sendforgotpassword"
	"identity_service/internal/http_server/handlers/sendverification"
	"identity_service/internal/http_server/handlers/signin"
	"identity_service/internal/http_server/handlers/signout"
	"identity_service/internal/http_server/handlers/signup"
	"identity_service/internal/http_server/handlers/verifyemail"
	"identity_service/internal/lib/i18n"
	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/lib/password"
	"identity_service/internal/lib/verification"
	"identity_service/internal/middleware/ratelimit"
	"identity_service/internal/rabbitmq"
	"identity_service/internal/storage/postgres"
	"identity_service/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting identity service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("identity service failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("identity service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		return err
	}

	cache, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer cache.Close()

	msgBroker, err := rabbitmq.New(log, cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer msgBroker.Close()

	tr, err := i18n.New()
	if err != nil {
		return err
	}

	authService := auth.New(
		log,
		storage.Users,
		password.NewBcrypt(0),
		token.New(cfg.Keys(), cache),
		verification.New(log, storage.Verifications, cfg.Verification.TTL, cfg.Verification.CodeLength),
		msgBroker,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      setupRouter(log, authService, tr),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", sl.Err(err))
			cancel()
		}
	}()

	go func() {
		defer wg.Done()

		if err := grpcserver.New(log, cfg.GRPCServer.Address, authService).Run(ctx); err != nil {
			log.Error("gRPC server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", sl.Err(err))
	}

	wg.Wait()

	return nil
}

func setupRouter(log *slog.Logger, authService *auth.Auth, tr *i18n.Translator) *chi.Mux {
	validate := validator.New()
	limits := ratelimit.New(tr)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)

	r.Route("/identity", func(r chi.Router) {
		r.With(limits.SignUp()).Post("/sign-up", signup.New(log, validate, tr, authService))
		r.With(limits.SignIn()).Post("/sign-in", signin.New(log, validate, tr, authService))
		r.With(limits.SignOut()).Post("/sign-out", signout.New(log, validate, tr, authService))
		r.With(limits.Refresh()).Post("/refresh-token", refresh.New(log, validate, tr, authService))
		r.With(limits.Introspect()).Post("/introspect", introspect.New(log, validate, tr, authService))

		r.With(limits.SendMail()).Post("/send-email-verification", sendverification.New(log, validate, tr, authService))
		r.With(limits.Verify()).Post("/verify-email-by-code", verifyemail.ByCode(log, validate, tr, authService))
		r.With(limits.Verify()).Get("/verify-email-by-token", verifyemail.ByToken(log, validate, tr, authService))

		r.With(limits.SendMail()).Post("/send-forgot-password", sendforgotpassword.New(log, validate, tr, authService))
		r.With(limits.PasswordReset()).Post("/forgot-password", forgotpassword.New(log, validate, tr, authService))
		r.With(limits.PasswordReset()).Post("/reset-password", resetpassword.New(log, validate, tr, authService))
	})

	return r
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
