package repository

import (
	"context"

	"airport_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	List(ctx context.Context, userID uint) ([]models.Category, error)
	// Create is idempotent on (user, name).
	Create(ctx context.Context, category *models.Category) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context, userID uint) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(category).Error
	if err != nil {
		return err
	}
	if category.ID == 0 {
		return db.Where("user_id = ? AND name = ?", category.UserID, category.Name).First(category).Error
	}
	return nil
}
