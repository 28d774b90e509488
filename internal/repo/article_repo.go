// Package repo – article persistence helpers.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// ArticleFilter narrows ListArticles. Zero values mean "no constraint".
type ArticleFilter struct {
	Status     string // draft|published; empty matches all
	CategoryID *uint
	Keyword    string // LIKE match against title and content
}

// CreateArticle inserts a new article owned by authorID.
func CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	return db.WithContext(ctx).Create(a).Error
}

// GetArticle loads an article with its author and category associations, or
// ErrNotFound.
func GetArticle(ctx context.Context, db *gorm.DB, id uint) (*domain.Article, error) {
	var a domain.Article
	err := db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateArticle applies the given column updates to an article.
func UpdateArticle(ctx context.Context, db *gorm.DB, id uint, updates map[string]any) error {
	res := db.WithContext(ctx).Model(&domain.Article{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteArticle soft-deletes an article.
func DeleteArticle(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Article{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListArticles returns one page of articles matching filter, newest
// publication first, along with the total match count.
func ListArticles(ctx context.Context, db *gorm.DB, filter ArticleFilter, offset, limit int) ([]domain.Article, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Article{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		q = q.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.Article
	err := q.Preload("Author").Preload("Category").
		Order("publish_time DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListHotArticles returns the published articles with the highest read
// counts, capped at limit.
func ListHotArticles(ctx context.Context, db *gorm.DB, limit int) ([]domain.Article, error) {
	var rows []domain.Article
	err := db.WithContext(ctx).
		Preload("Author").Preload("Category").
		Where("status = ?", domain.ArticleStatusPublished).
		Order("read_count DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// IncrementReadCount bumps the denormalized view counter. The counter is
// informational only; engagement counts are always recomputed from rows.
func IncrementReadCount(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Model(&domain.Article{}).
		Where("id = ?", id).
		UpdateColumn("read_count", gorm.Expr("read_count + 1")).Error
}
