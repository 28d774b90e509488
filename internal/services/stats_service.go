// Package services – StatsService
//
// Analytics use-cases: the admin dashboard overview and browsing-time
// telemetry reported by the frontend clients.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// StatsService computes aggregates and records telemetry.
type StatsService struct {
	DB *gorm.DB
}

// Overview returns the site-wide dashboard aggregates.
func (s *StatsService) Overview(ctx context.Context) (*repo.Overview, error) {
	return repo.OverviewStats(ctx, s.DB)
}

// RecordBrowsing accumulates reported view time for a page. userID is nil
// for anonymous visitors. Negative durations are clamped to zero so a buggy
// client cannot shrink the aggregate.
func (s *StatsService) RecordBrowsing(ctx context.Context, userID *uint, page string, seconds float64) error {
	page = strings.TrimSpace(page)
	if page == "" {
		return ErrInvalidPage
	}
	if seconds < 0 {
		seconds = 0
	}
	return repo.RecordBrowsing(ctx, s.DB, userID, page, seconds)
}

// TopPages returns the pages with the most accumulated view time.
func (s *StatsService) TopPages(ctx context.Context, limit int) ([]domain.BrowsingStat, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return repo.TopBrowsedPages(ctx, s.DB, limit)
}
