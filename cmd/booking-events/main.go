// Command booking-events follows the booking topics and logs every event.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"ms-booking/internal/config"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _ := config.Load()

	var groupID string
	flagSet := pflag.NewFlagSet("booking-events", pflag.ContinueOnError)
	flagSet.StringSliceVar(&cfg.Kafka.Brokers, "brokers", cfg.Kafka.Brokers, "kafka brokers")
	flagSet.StringVar(&cfg.Kafka.TopicPrefix, "prefix", cfg.Kafka.TopicPrefix, "topic prefix")
	flagSet.StringVar(&groupID, "group", "booking-events", "consumer group id")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	log := logger.NewLogger(logger.Options{Dir: cfg.Log.Dir, Prefix: "booking-events", MinLevel: logger.ParseLevel(cfg.Log.Level)})
	defer log.Close()

	topics := (&kafka.Producer{TopicPrefix: cfg.Kafka.TopicPrefix}).Topics()
	log.Info("KAFKA", fmt.Sprintf("Following %s on %s", strings.Join(topics, ", "), strings.Join(cfg.Kafka.Brokers, ",")))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, groupID, log)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return consumer.Run(ctx, func(e models.BookingEvent) {
		log.LogBooking(strings.ToUpper(strings.TrimPrefix(e.Type, "booking.")), e.BookedTicketTransactionID,
			fmt.Sprintf("event %s, %d lines", e.EventID, len(e.Lines)))
	})
}
