// Package repo – category persistence helpers.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var rows []domain.Category
	err := db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// GetCategory loads a category by id, or ErrNotFound.
func GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category; ErrDuplicate when name or slug exists.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
