package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-store/internal/api"
	"github.com/example/ec-store/internal/auth"
	"github.com/example/ec-store/internal/config"
	"github.com/example/ec-store/internal/domain/category"
	"github.com/example/ec-store/internal/domain/inventory"
	"github.com/example/ec-store/internal/domain/order"
	"github.com/example/ec-store/internal/domain/product"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/example/ec-store/internal/infrastructure/cache"
	"github.com/example/ec-store/internal/infrastructure/kafka"
	"github.com/example/ec-store/internal/infrastructure/mongodb"
	"github.com/example/ec-store/internal/infrastructure/postgres"
	"github.com/example/ec-store/internal/infrastructure/store"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

type productBackend interface {
	product.Repository
	inventory.StockStore
}

type repositories struct {
	orders     order.Repository
	products   productBackend
	categories category.Repository
	users      user.Repository
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	if err := cfg.ValidateJWT(); err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] EC Store - Order API")
	log.Println("[API] ========================================")
	log.Printf("[API] Store backend: %s", cfg.StoreBackend)

	checks := map[string]api.HealthCheck{}

	repos, closeRepos, err := openRepositories(ctx, cfg, checks)
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	defer closeRepos()

	// Optional stock movement journal
	var journal inventory.Journal
	if cfg.DatabaseURL != "" {
		db, err := postgres.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()
		if err := postgres.RunMigrations(db); err != nil {
			log.Fatalf("[API] Failed to run migrations: %v", err)
		}
		journal = postgres.NewJournal(db)
		checks["postgres"] = pingSQL(db)
		log.Println("[API] Stock journal: PostgreSQL")
	}

	// Optional descendant cache
	var descendants category.DescendantCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("[API] Redis connection failed: %v", err)
		}
		descendants = cache.NewDescendantCache(redisClient)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Printf("[API] Category cache: Redis at %s", cfg.RedisAddr)
	}

	ledger := inventory.NewLedger(repos.products, journal)
	categorySvc := category.NewService(repos.categories, descendants)
	productSvc := product.NewService(repos.products, categorySvc, ledger)
	userSvc := user.NewService(repos.users)

	orderOpts := []order.Option{order.WithUserDirectory(userSvc)}
	if cfg.KafkaEnabled() {
		publisher := kafka.NewOrderEventPublisher(kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic), kafka.DefaultBreakerSettings())
		defer publisher.Close()
		orderOpts = append(orderOpts, order.WithPublisher(publisher))
		checks["kafka"] = func(context.Context) error {
			if publisher.State() == gobreaker.StateOpen {
				return errors.New("circuit breaker open")
			}
			return nil
		}
		log.Printf("[API] Kafka: %v (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	orderSvc := order.NewService(repos.orders, repos.products, ledger, orderOpts...)

	jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Fatalf("[API] %v", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Orders:         api.NewOrderHandlers(orderSvc),
		Products:       api.NewProductHandlers(productSvc),
		Categories:     api.NewCategoryHandlers(categorySvc),
		Auth:           api.NewAuthHandlers(userSvc, jwtService),
		Tokens:         jwtService,
		HealthChecks:   checks,
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Forced shutdown: %v", err)
	}
	log.Println("[API] Server stopped")
}

func openRepositories(ctx context.Context, cfg *config.Config, checks map[string]api.HealthCheck) (repositories, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Println("[API] Using in-memory store; data is lost on restart")
		return repositories{
			orders:     store.NewOrderStore(),
			products:   store.NewProductStore(),
			categories: store.NewCategoryStore(),
			users:      store.NewUserStore(),
		}, func() {}, nil
	}

	db, err := mongodb.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return repositories{}, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := mongodb.CreateIndexes(ctx, db); err != nil {
		return repositories{}, nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	checks["mongo"] = func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }
	log.Printf("[API] Connected to MongoDB database %s", cfg.MongoDBName)

	closeFn := func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Printf("[API] MongoDB disconnect failed: %v", err)
		}
	}
	return repositories{
		orders:     mongodb.NewOrderRepository(db),
		products:   mongodb.NewProductRepository(db),
		categories: mongodb.NewCategoryRepository(db),
		users:      mongodb.NewUserRepository(db),
	}, closeFn, nil
}

func pingSQL(db *sql.DB) api.HealthCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
