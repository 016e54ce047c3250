package services

import (
	"context"
	"fmt"
	"strings"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"
)

// DefaultCategories are created for every new user.
var DefaultCategories = []string{"Franelas", "Chemises", "Gorras", "Bolsos", "Sudaderas", "Otros"}

type CategoryService interface {
	ListCategories(ctx context.Context, sess Session) ([]models.Category, error)
	CreateCategory(ctx context.Context, sess Session, name string) (*models.Category, error)
	// SeedDefaults creates DefaultCategories that do not exist yet.
	SeedDefaults(ctx context.Context, userID uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	cache        Cache
	feed         *changeFeed
	opts         Options
}

func NewCategoryService(categoryRepo repository.CategoryRepository, cache Cache, pub ChangePublisher, opts Options) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		feed:         newChangeFeed(cache, pub),
		opts:         opts.withDefaults(),
	}
}

func (s *categoryService) ListCategories(ctx context.Context, sess Session) ([]models.Category, error) {
	key := QueryKey{Entity: models.EntityCategories, UserID: sess.UserID}
	return cached(ctx, s.cache, s.opts.CacheTTL, key, func() ([]models.Category, error) {
		return s.categoryRepo.List(ctx, sess.UserID)
	})
}

func (s *categoryService) CreateCategory(ctx context.Context, sess Session, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("category name required")
	}
	c := &models.Category{UserID: sess.UserID, Name: name}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.feed.record(ctx, models.EntityCategories, models.OpInsert, c.ID, sess.UserID)
	return c, nil
}

func (s *categoryService) SeedDefaults(ctx context.Context, userID uint) error {
	for _, name := range DefaultCategories {
		if err := s.categoryRepo.Create(ctx, &models.Category{UserID: userID, Name: name}); err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
	}
	return nil
}
