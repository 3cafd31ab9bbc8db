package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeynil/BooReviewService/internal/api"
	"github.com/honeynil/BooReviewService/internal/config"
	"github.com/honeynil/BooReviewService/internal/handler"
	"github.com/honeynil/BooReviewService/internal/infrastructure/auth"
	"github.com/honeynil/BooReviewService/internal/infrastructure/google"
	"github.com/honeynil/BooReviewService/internal/infrastructure/kafka"
	"github.com/honeynil/BooReviewService/internal/infrastructure/redis"
	"github.com/honeynil/BooReviewService/internal/observability"
	core "github.com/honeynil/BooReviewService/internal/repository/postgres"
	service "github.com/honeynil/BooReviewService/internal/services"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.Setup("boo-review-service", cfg.LogLevel, cfg.OTLPEndpoint, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		slog.Error("failed to connect to Postgres", "error", err)
		return err
	}
	if err := core.Migrate(ctx, db); err != nil {
		return err
	}

	redisClient, err := redis.NewClient(ctx, redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	memberRepo := core.NewPostgresMemberRepository(db)
	auditRepo := core.NewPostgresRevocationAuditRepository(db)

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	codec, err := auth.NewCodec([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(
		codec,
		redis.NewRevocationStore(redisClient, "boo:"),
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		auth.WithRecorder(service.NewRevocationPublisher(producer, cfg.KafkaRevocationTopic)),
	)
	if err != nil {
		return err
	}

	googleClient := google.NewClient(google.Options{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	svc := service.NewMemberService(memberRepo, auditRepo, googleClient, tokens, producer, cfg.KafkaMemberTopic)

	auditConsumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaRevocationTopic, cfg.KafkaGroupID, auditRepo)
	defer auditConsumer.Close()
	go auditConsumer.Consume(ctx)

	router := api.SetupRouter(handler.NewHandler(svc), tokens, map[string]api.HealthChecker{
		"postgres": api.PingFunc(db.PingContext),
		"redis":    redisClient,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
