// Package repo – aggregate queries for the analytics module.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// Overview carries the site-wide aggregates shown on the admin dashboard.
type Overview struct {
	TotalArticles     int64         `json:"totalArticles"`
	PublishedArticles int64         `json:"publishedArticles"`
	TotalUsers        int64         `json:"totalUsers"`
	TotalViews        int64         `json:"totalViews"`
	TopArticles       []ArticleRank `json:"topArticles"`
}

// ArticleRank is one row of the dashboard's most-read list.
type ArticleRank struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	ReadCount int64  `json:"readCount"`
}

// topArticlesLimit bounds the most-read list on the dashboard.
const topArticlesLimit = 5

// OverviewStats computes the dashboard aggregates with a handful of
// lightweight queries.
func OverviewStats(ctx context.Context, db *gorm.DB) (*Overview, error) {
	var o Overview

	if err := db.WithContext(ctx).Model(&domain.Article{}).Count(&o.TotalArticles).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.Article{}).
		Where("status = ?", domain.ArticleStatusPublished).
		Count(&o.PublishedArticles).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.User{}).Count(&o.TotalUsers).Error; err != nil {
		return nil, err
	}

	var row struct{ Total *int64 }
	if err := db.WithContext(ctx).Model(&domain.Article{}).
		Select("SUM(read_count) AS total").
		Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.Total != nil {
		o.TotalViews = *row.Total
	}

	if err := db.WithContext(ctx).Model(&domain.Article{}).
		Select("id, title, read_count").
		Where("status = ?", domain.ArticleStatusPublished).
		Order("read_count DESC").
		Limit(topArticlesLimit).
		Scan(&o.TopArticles).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// RecordBrowsing accumulates reported view time for (userID, page). The row
// is updated in place when it exists, created otherwise; userID may be nil
// for anonymous visitors.
func RecordBrowsing(ctx context.Context, db *gorm.DB, userID *uint, page string, seconds float64) error {
	q := db.WithContext(ctx).Model(&domain.BrowsingStat{}).Where("page = ?", page)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("user_id IS NULL")
	}

	res := q.Updates(map[string]any{
		"total_time": gorm.Expr("total_time + ?", seconds),
		"visits":     gorm.Expr("visits + 1"),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	rec := domain.BrowsingStat{UserID: userID, Page: page, TotalTime: seconds, Visits: 1}
	return db.WithContext(ctx).Create(&rec).Error
}

// TopBrowsedPages returns the pages with the most accumulated view time.
func TopBrowsedPages(ctx context.Context, db *gorm.DB, limit int) ([]domain.BrowsingStat, error) {
	var rows []domain.BrowsingStat
	err := db.WithContext(ctx).
		Order("total_time DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
