// Package services – CategoryService
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// CategoryService manages the article taxonomy.
type CategoryService struct {
	DB     *gorm.DB
	Locale language.Tag // locale for display-name casing; English when unset
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return repo.ListCategories(ctx, s.DB)
}

// Create inserts a category. The display name is title-cased per the
// configured locale; the slug is derived by lowercasing and replacing
// whitespace runs with a single hyphen.
func (s *CategoryService) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTitle
	}

	locale := s.Locale
	if locale == (language.Tag{}) {
		locale = language.English
	}

	c := &domain.Category{
		Name: cases.Title(locale).String(name),
		Slug: slugify(name),
	}
	if err := repo.CreateCategory(ctx, s.DB, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return c, nil
}

// slugify lowercases and joins whitespace-separated words with hyphens.
func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
