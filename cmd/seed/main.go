package main

import (
	"context"
	"errors"
	"log"

	"github.com/example/ec-store/internal/config"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/example/ec-store/internal/infrastructure/mongodb"
)

// seed creates the first admin account so admin-only routes are reachable.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Seed] %v", err)
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Fatal("[Seed] ADMIN_EMAIL and ADMIN_PASSWORD environment variables are required")
	}

	db, err := mongodb.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("[Seed] Failed to connect to MongoDB: %v", err)
	}
	defer db.Client().Disconnect(ctx)

	if err := mongodb.CreateIndexes(ctx, db); err != nil {
		log.Fatalf("[Seed] Failed to create indexes: %v", err)
	}

	users := user.NewService(mongodb.NewUserRepository(db))
	admin, err := users.RegisterAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, "Administrator")
	if errors.Is(err, user.ErrEmailTaken) {
		log.Printf("[Seed] Admin %s already exists", cfg.AdminEmail)
		return
	}
	if err != nil {
		log.Fatalf("[Seed] Failed to create admin: %v", err)
	}

	log.Printf("[Seed] Created admin %s (%s)", admin.Email, admin.ID)
}
