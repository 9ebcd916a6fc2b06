package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"ayat-booking/internal/availability"
	"ayat-booking/internal/booking"
	"ayat-booking/internal/catalog"
	"ayat-booking/internal/config"
	"ayat-booking/internal/ledger"
	"ayat-booking/internal/lock"
	"ayat-booking/internal/logger"
	"ayat-booking/internal/payment"
	"ayat-booking/internal/submission"
	"ayat-booking/internal/web"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger("booking-service")
	defer log.Close()

	ctx := context.Background()

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err))
	}
	log.Info("APP", "Redis connection successful")

	// --- Catalog ---
	// A load failure still starts the service so the page can show the banner.
	loader := catalog.NewLoader(cfg.Catalog.Source, &http.Client{Timeout: cfg.Catalog.FetchTimeout}, log)
	events, loadErr := loader.Load(ctx)
	store := catalog.NewStore(events, loadErr)

	led := ledger.NewLedger(redisClient, cfg.Redis.LedgerKey, cfg.Booking.ClearConfirmTTL, log)
	if loadErr == nil {
		if err := web.RebuildSeats(ctx, store, led); err != nil {
			log.Error("LEDGER", fmt.Sprintf("Failed to recompute booked seats: %v", err))
		}
	}

	// --- Services ---
	if cfg.Sink.URL == "" {
		log.Warn("CONFIG", "SINK_URL not set, bookings are kept in the local ledger only")
	}
	sink := submission.NewHTTPSink(cfg.Sink.URL, submission.SinkMode(cfg.Sink.Mode), cfg.Sink.Timeout, nil, log)
	coordinator := submission.NewCoordinator(sink, led, store, log)

	evaluator := availability.NewEvaluator(cfg.Booking.MaxTicketsPerBooking)
	submitLock := lock.NewSubmitLock(redisClient, cfg.Booking.SubmitLockTTL, log)
	forms := booking.NewController(store, evaluator, coordinator, submitLock, log)
	forms.FormTTL = cfg.Booking.FormTTL

	handler := web.NewHandler(store, evaluator, payment.NewPresenter(cfg.Booking.Currency), forms, led, log)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("APP", fmt.Sprintf("Booking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("APP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("APP", fmt.Sprintf("Shutdown error: %v", err))
	}

	stats := coordinator.Stats()
	log.Info("SUBMIT", fmt.Sprintf("Remote outcomes this run: confirmed=%d unknown=%d failed=%d skipped=%d",
		stats[submission.RemoteConfirmed], stats[submission.RemoteUnknown], stats[submission.RemoteFailed], stats[submission.RemoteSkipped]))
	log.Info("APP", "Booking service shutdown complete")
}
