package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymgate/internal/attendance"
	"gymgate/internal/checkin"
	"gymgate/internal/config"
	"gymgate/internal/db"
	"gymgate/internal/events"
	"gymgate/internal/logger"
	"gymgate/internal/membership"
	"gymgate/internal/metrics"
	"gymgate/internal/roster"
	"gymgate/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type stores struct {
	members membership.Repository
	codes   attendance.Repository
	ledger  checkin.Ledger
	roster  roster.Store
	close   func()
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		codes := attendance.NewMemoryRepository()
		return &stores{
			members: membership.NewMemoryRepository(),
			codes:   codes,
			ledger:  checkin.NewMemoryLedger(codes),
			roster:  roster.NewMemoryStore(),
			close:   func() {},
		}, nil
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected")

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, err
	}
	logger.Info("Migrations completed")

	return &stores{
		members: membership.NewRepository(database),
		codes:   attendance.NewRepository(database),
		ledger:  checkin.NewLedger(database),
		roster:  roster.NewStore(database),
		close:   func() { database.Close() },
	}, nil
}

// @title GymGate API
// @version 1.0
// @description Admission control for gym branches: check-ins, attendance codes, class rosters and waitlists.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting GymGate application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	st, err := openStores(cfg)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.Store, err)
	}
	defer st.close()

	var publisher events.Publisher = events.Nop{}
	if cfg.EventsEnabled {
		redisPublisher := events.NewRedisPublisher(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), events.DefaultQueue)
		defer redisPublisher.Close()
		prometheus.MustRegister(metrics.NewEventQueueGauge(redisPublisher.QueueLengthFunc(time.Second)))
		publisher = redisPublisher
		logger.Info("Event publisher initialized", "redis_addr", cfg.RedisAddr)
	}

	log := logger.Logger()
	validator := membership.NewValidator(st.members)
	codes := attendance.NewService(st.codes, cfg.CodeTTL, cfg.CodeLength)
	gate := checkin.NewGate(st.ledger, codes, validator, publisher, log, cfg.CheckInCooldown)
	coordinator := roster.NewCoordinator(st.roster, validator, publisher, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := attendance.NewSweeper(codes, log, cfg.CodeSweepInterval)
	go sweeper.Start(ctx)

	srv := server.New(cfg, server.Handlers{
		CheckIns:   checkin.NewHandler(gate),
		Codes:      attendance.NewHandler(codes),
		Membership: membership.NewHandler(st.members, validator),
		Sessions: roster.NewHandler(
			roster.NewRoster(st.roster, coordinator, log),
			roster.NewWaitlist(st.roster, coordinator, log),
			coordinator,
		),
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
