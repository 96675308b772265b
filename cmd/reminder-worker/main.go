package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/siva23367/clinic-scheduler/internal/booking"
	"github.com/siva23367/clinic-scheduler/internal/config"
	"github.com/siva23367/clinic-scheduler/internal/db"
	"github.com/siva23367/clinic-scheduler/internal/notify"
	redisclient "github.com/siva23367/clinic-scheduler/internal/redis"
	"github.com/siva23367/clinic-scheduler/internal/reminder"
	"github.com/siva23367/clinic-scheduler/pkg/logging"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	log.Printf("running reminder worker in env=%s interval=%s", cfg.Env, cfg.SweepInterval)

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

	repo := booking.NewPgRepository(pgPool)

	var email notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	}, logger); sg != nil {
		email = sg
	}
	dispatcher := notify.NewRouter(email, notify.NewLogSMSSender(logger), logger)

	sweeper := reminder.NewSweeper(repo, dispatcher, logger)
	locker := redisclient.NewRedisLocker(rdb, cfg.SweepTimeout)

	// Run once at startup
	runOnce(rootCtx, cfg, sweeper, locker)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, cfg, sweeper, locker)
		}
	}
}

// runOnce holds the sweep lock for the whole run so overlapping workers
// skip instead of double-sending.
func runOnce(ctx context.Context, cfg config.Config, sweeper *reminder.Sweeper, locker redisclient.Locker) {
	runCtx, cancel := context.WithTimeout(ctx, cfg.SweepTimeout)
	defer cancel()

	start := time.Now()
	err := locker.WithLock(runCtx, redisclient.SweepLockKey, func(lockCtx context.Context) error {
		report, err := sweeper.RunSweep(lockCtx, time.Now())
		if err != nil {
			return err
		}
		log.Printf("sweep complete in %s attempted=%d succeeded=%d failed=%d skipped=%d",
			time.Since(start), report.Attempted, report.Succeeded, report.Failed, report.Skipped)
		return nil
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		log.Println("another worker holds the sweep lock, skipping this run")
		return
	}
	if err != nil {
		log.Printf("sweep run error: %v", err)
	}
}
