package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

func TestRecordBrowsing_Accumulates(t *testing.T) {
	svc := &StatsService{DB: newServiceDB(t)}
	ctx := context.Background()

	if err := svc.RecordBrowsing(ctx, nil, "/home", 3); err != nil {
		t.Fatalf("first report: %v", err)
	}
	if err := svc.RecordBrowsing(ctx, nil, "/home", 4.5); err != nil {
		t.Fatalf("second report: %v", err)
	}

	var rows []domain.BrowsingStat
	if err := svc.DB.Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one accumulated row, got %d", len(rows))
	}
	if rows[0].TotalTime != 7.5 || rows[0].Visits != 2 {
		t.Fatalf("row: total=%v visits=%d", rows[0].TotalTime, rows[0].Visits)
	}
}

func TestRecordBrowsing_SeparatesAnonymousFromUsers(t *testing.T) {
	svc := &StatsService{DB: newServiceDB(t)}
	ctx := context.Background()
	uid := uint(7)

	if err := svc.RecordBrowsing(ctx, nil, "/home", 1); err != nil {
		t.Fatalf("anonymous: %v", err)
	}
	if err := svc.RecordBrowsing(ctx, &uid, "/home", 2); err != nil {
		t.Fatalf("user: %v", err)
	}

	var n int64
	svc.DB.Model(&domain.BrowsingStat{}).Count(&n)
	if n != 2 {
		t.Fatalf("expected separate rows per visitor kind, got %d", n)
	}
}

func TestRecordBrowsing_Validation(t *testing.T) {
	svc := &StatsService{DB: newServiceDB(t)}
	ctx := context.Background()

	if err := svc.RecordBrowsing(ctx, nil, "  ", 3); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("blank page: %v", err)
	}

	// Negative durations are clamped, not rejected: the visit still counts.
	if err := svc.RecordBrowsing(ctx, nil, "/home", -10); err != nil {
		t.Fatalf("negative seconds: %v", err)
	}
	var row domain.BrowsingStat
	if err := svc.DB.First(&row).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.TotalTime != 0 || row.Visits != 1 {
		t.Fatalf("clamp: total=%v visits=%d", row.TotalTime, row.Visits)
	}
}

func TestTopPages_OrderAndClamp(t *testing.T) {
	svc := &StatsService{DB: newServiceDB(t)}
	ctx := context.Background()

	for page, secs := range map[string]float64{"/a": 5, "/b": 20, "/c": 10} {
		if err := svc.RecordBrowsing(ctx, nil, page, secs); err != nil {
			t.Fatalf("report %s: %v", page, err)
		}
	}

	top, err := svc.TopPages(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Page != "/b" || top[1].Page != "/c" {
		t.Fatalf("order: %+v", top)
	}

	// Nonsense limits fall back to the default of 10.
	top, err = svc.TopPages(ctx, -1)
	if err != nil || len(top) != 3 {
		t.Fatalf("default limit: len=%d err=%v", len(top), err)
	}
}

func TestOverview_Aggregates(t *testing.T) {
	svc := &StatsService{DB: newServiceDB(t)}
	ctx := context.Background()
	now := time.Now().UTC()

	users := []domain.User{
		{Username: "a", Email: "a@x.io", Role: "user", Status: "active"},
		{Username: "b", Email: "b@x.io", Role: "admin", Status: "active"},
	}
	for i := range users {
		if err := svc.DB.Create(&users[i]).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	articles := []domain.Article{
		{Title: "p1", Content: "c", AuthorID: 1, Status: domain.ArticleStatusPublished, PublishTime: &now, ReadCount: 3},
		{Title: "p2", Content: "c", AuthorID: 1, Status: domain.ArticleStatusPublished, PublishTime: &now, ReadCount: 4},
		{Title: "d1", Content: "c", AuthorID: 2, Status: domain.ArticleStatusDraft, ReadCount: 1},
	}
	for i := range articles {
		if err := svc.DB.Create(&articles[i]).Error; err != nil {
			t.Fatalf("seed article: %v", err)
		}
	}

	o, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o.TotalArticles != 3 || o.PublishedArticles != 2 || o.TotalUsers != 2 || o.TotalViews != 8 {
		t.Fatalf("overview: %+v", o)
	}
}
