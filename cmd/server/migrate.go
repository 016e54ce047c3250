package main

import (
	"fmt"

	"airport_manager/internal/database"
	"airport_manager/internal/migrations"
	"airport_manager/internal/repository"
	"airport_manager/internal/services"

	"github.com/spf13/cobra"
)

func migrate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := database.Initialize(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		return err
	}
	return migrations.RunMigrations(db)
}

func seed(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := database.Initialize(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := migrations.RunMigrations(db); err != nil {
		return err
	}

	categories := services.NewCategoryService(repository.NewCategoryRepository(db), nil, nil, services.Options{})
	users := services.NewUserService(repository.NewUserRepository(db), nil, categories, cfg.JWTSecret, cfg.SessionTTL)
	if err := migrations.SeedOwner(cmd.Context(), users, cfg.OwnerEmail, cfg.OwnerPassword); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
