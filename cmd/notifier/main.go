package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-store/internal/config"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/example/ec-store/internal/email"
	"github.com/example/ec-store/internal/infrastructure/kafka"
	"github.com/example/ec-store/internal/infrastructure/mongodb"
	"github.com/example/ec-store/internal/notification"
)

// consumerGroup is dedicated to email notifications.
const consumerGroup = "email-notifier"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] %v", err)
	}
	if !cfg.KafkaEnabled() {
		log.Fatal("[Notifier] KAFKA_BROKERS environment variable is required")
	}
	if cfg.StoreBackend != config.BackendMongo {
		log.Fatal("[Notifier] recipients are resolved from MongoDB; STORE_BACKEND must be mongo")
	}

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] EC Store - Email Notification Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Notifier] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Notifier] Group: %s", consumerGroup)
	log.Printf("[Notifier] SMTP: %s:%s", cfg.SMTPHost, cfg.SMTPPort)
	log.Printf("[Notifier] From: %s", cfg.SMTPFrom)

	db, err := mongodb.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("[Notifier] Failed to connect to MongoDB: %v", err)
	}
	defer db.Client().Disconnect(context.Background())
	log.Println("[Notifier] Connected to MongoDB")

	users := user.NewService(mongodb.NewUserRepository(db))
	handler := notification.NewHandler(email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom), users)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Println("[Notifier] Starting event consumer...")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
	<-done
}
