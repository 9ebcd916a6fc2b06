package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ayat-booking/internal/config"
	"ayat-booking/internal/kafka"
	"ayat-booking/internal/logger"
	"ayat-booking/internal/notify"
	"ayat-booking/internal/sink"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger("sink-service")
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Database Setup ---
	bunDB, err := sink.Open(cfg.Sink.DBDriver, cfg.Sink.DBDSN)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()
	if err := bunDB.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", cfg.Sink.DBDriver, err))
	}

	db := &sink.DB{Bun: bunDB}
	if err := db.CreateSchema(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to create bookings table: %v", err))
	}
	log.LogDatabase("MIGRATE", "bookings", fmt.Sprintf("table ready on %s", cfg.Sink.DBDriver))

	// --- Notifier ---
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.From,
		Timeout:  cfg.Email.SMTPTimeout,
	}, log)
	notifier := notify.NewNotifier(mailer, notify.Contact{Email: cfg.Email.ContactEmail, Phone: cfg.Email.ContactPhone}, log)

	var publisher sink.Publisher = notify.Direct{Notifier: notifier}
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.BookingsTopic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Could not ensure topics: %v", err))
		}

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingsTopic, log)
		defer producer.Close()
		publisher = producer

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.BookingsTopic, cfg.Kafka.GroupID, log)
		defer consumer.Close()
		go consumer.Start(ctx, notifier.HandleBookingRecorded)
	} else {
		log.Warn("KAFKA", "Kafka disabled, confirmation emails are sent in-process")
	}

	handler := sink.NewHandler(db, publisher, log)

	server := &http.Server{
		Addr:         cfg.Server.SinkPort,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("APP", fmt.Sprintf("Sink service running on %s", cfg.Server.SinkPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("APP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("APP", fmt.Sprintf("Shutdown error: %v", err))
	}
	log.Info("APP", "Sink service shutdown complete")
}
