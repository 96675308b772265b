package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/siva23367/clinic-scheduler/internal/api"
	"github.com/siva23367/clinic-scheduler/internal/availability"
	"github.com/siva23367/clinic-scheduler/internal/booking"
	"github.com/siva23367/clinic-scheduler/internal/config"
	"github.com/siva23367/clinic-scheduler/internal/db"
	"github.com/siva23367/clinic-scheduler/internal/notify"
	"github.com/siva23367/clinic-scheduler/internal/patient"
	redisclient "github.com/siva23367/clinic-scheduler/internal/redis"
	"github.com/siva23367/clinic-scheduler/pkg/logging"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	slots := availability.NewPgStore(pgPool)
	repo := booking.NewPgRepository(pgPool)
	patients := patient.NewPgDirectory(pgPool)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)

	var email notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	}, logger); sg != nil {
		email = sg
		log.Println("using SendGrid email sender")
	} else {
		log.Println("SENDGRID_API_KEY not set, using stub email sender")
	}
	dispatcher := notify.NewRouter(email, notify.NewLogSMSSender(logger), logger)

	bookings := booking.NewService(slots, repo, patients, locker, dispatcher, cfg.IntakeFormPath, logger)

	router := api.NewRouter(api.RouterConfig{
		Bookings: bookings,
		Slots:    slots,
		PgPool:   pgPool,
		Redis:    rdb,
		Env:      cfg.Env,
		Version:  version,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("api-server stopped")
}
