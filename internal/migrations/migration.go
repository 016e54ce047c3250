package migrations

import (
	"context"
	"fmt"
	"log/slog"

	"airport_manager/internal/models"
	"airport_manager/internal/services"

	"gorm.io/gorm"
)

// Models lists every table in dependency order.
var Models = []interface{}{
	&models.User{},
	&models.Customer{},
	&models.Category{},
	&models.Order{},
	&models.OrderItem{},
	&models.Payment{},
	&models.Expense{},
}

// RunMigrations creates or updates the schema. Existing data is kept.
func RunMigrations(db *gorm.DB) error {
	slog.Info("running database migrations")
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	slog.Info("database migrations completed")
	return nil
}

// SeedOwner creates the owner account with its default categories unless the
// email is already registered.
func SeedOwner(ctx context.Context, users services.UserService, email, password string) error {
	user, created, err := users.EnsureUser(ctx, email, password, "Owner")
	if err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}
	if !created {
		slog.InfoContext(ctx, "owner user already exists", "email", user.Email)
		return nil
	}
	slog.InfoContext(ctx, "owner user created", "email", user.Email, "user_id", user.ID)
	return nil
}
