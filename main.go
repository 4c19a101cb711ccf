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

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	booking_db "ms-booking/internal/booking/db"
	rediswrap "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/report"
	"ms-booking/internal/report/report_api"
	"ms-booking/internal/router"
	ticket_db "ms-booking/internal/tickets/db"
	tickets "ms-booking/internal/tickets/service"
	"ms-booking/internal/tickets/ticket_api"
)

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, booking.TicketLock) {
	if cfg.Addr == "" {
		log.Info("REDIS", "REDIS_ADDR not set, ticket lock disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (lock TTL %s)", cfg.Addr, cfg.LockTTL))
	return client, rediswrap.NewRedis(client, cfg.LockTTL, log)
}

func connectKafka(cfg config.KafkaConfig, log *logger.Logger) (*kafka.Producer, booking.EventPublisher) {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, booking events are not published")
		return nil, nil
	}

	producer := kafka.NewProducer(cfg.Brokers, cfg.TopicPrefix, log)
	if err := kafka.EnsureTopicsExist(cfg.Brokers, producer.Topics(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	return producer, producer
}

func main() {
	cfg, loaded := config.Load()

	log := logger.NewLogger(logger.Options{Dir: cfg.Log.Dir, MinLevel: logger.ParseLevel(cfg.Log.Level)})
	defer log.Close()

	log.Info("APP", "Starting Ticket Booking Service initialization")
	if loaded {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	} else {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := database.Prepare(ctx, bunDB, cfg.Database, log); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}

	redisClient, lock := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	producer, events := connectKafka(cfg.Kafka, log)
	if producer != nil {
		defer producer.Close()
	}

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	ticketService := tickets.NewTicketService(&ticket_db.DB{Bun: bunDB}, log)
	bookingService := booking.NewBookingService(booking_db.New(bunDB), lock, events, log, booking.Options{
		Atomic:          cfg.Booking.Atomic,
		RestockOnRevoke: cfg.Booking.RestockOnRevoke,
	})
	reportService := report.NewReportService(ticketService, bookingService,
		report.NewGenerator(cfg.Report.Title), report.NewQRGenerator(cfg.Report.QRSecret), log)

	log.Info("HTTP", "Setting up router and middleware")
	handler := router.New(router.Deps{
		Tickets:        ticket_api.NewHandler(ticketService, log),
		Bookings:       booking_api.NewHandler(bookingService, log),
		Reports:        report_api.NewHandler(reportService, log),
		Verifier:       verifier,
		DB:             bunDB,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Ticket Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Ticket Booking Service shutdown complete")
	}
}
