package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

func TestArticleCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	a := &domain.Article{
		Title:       "hello",
		Content:     "body",
		AuthorID:    7,
		Status:      domain.ArticleStatusPublished,
		PublishTime: &now,
	}
	if err := CreateArticle(ctx, db, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == 0 {
		t.Fatalf("expected generated id")
	}

	got, err := GetArticle(ctx, db, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "hello" || got.Status != domain.ArticleStatusPublished {
		t.Fatalf("unexpected article: %+v", got)
	}

	if err := UpdateArticle(ctx, db, a.ID, map[string]any{"title": "updated"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = GetArticle(ctx, db, a.ID)
	if got.Title != "updated" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := IncrementReadCount(ctx, db, a.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	got, _ = GetArticle(ctx, db, a.ID)
	if got.ReadCount != 1 {
		t.Fatalf("read count: %d", got.ReadCount)
	}

	if err := DeleteArticle(ctx, db, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetArticle(ctx, db, a.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteArticle(ctx, db, a.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestListArticles_FilterAndPaging(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ts := time.Now().UTC().Add(time.Duration(i) * time.Minute)
		status := domain.ArticleStatusPublished
		if i == 0 {
			status = domain.ArticleStatusDraft
		}
		a := &domain.Article{
			Title:       "go tips",
			Content:     "content",
			AuthorID:    1,
			Status:      status,
			PublishTime: &ts,
		}
		if err := CreateArticle(ctx, db, a); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	rows, total, err := ListArticles(ctx, db, ArticleFilter{Status: domain.ArticleStatusPublished}, 0, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 || len(rows) != 3 {
		t.Fatalf("expected total=4 page=3, got total=%d page=%d", total, len(rows))
	}

	rows, total, err = ListArticles(ctx, db, ArticleFilter{Keyword: "tips"}, 0, 10)
	if err != nil || total != 5 {
		t.Fatalf("keyword filter: total=%d err=%v", total, err)
	}
	_ = rows

	rows, total, err = ListArticles(ctx, db, ArticleFilter{Keyword: "nothing-matches"}, 0, 10)
	if err != nil || total != 0 || len(rows) != 0 {
		t.Fatalf("empty filter: total=%d err=%v", total, err)
	}
}

func TestListHotArticles_OrderedByReads(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i, reads := range []int64{5, 50, 20} {
		ts := time.Now().UTC()
		a := &domain.Article{
			Title:       "a",
			Content:     "c",
			AuthorID:    1,
			Status:      domain.ArticleStatusPublished,
			PublishTime: &ts,
			ReadCount:   reads,
		}
		if err := CreateArticle(ctx, db, a); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	rows, err := ListHotArticles(ctx, db, 2)
	if err != nil {
		t.Fatalf("hot: %v", err)
	}
	if len(rows) != 2 || rows[0].ReadCount != 50 || rows[1].ReadCount != 20 {
		t.Fatalf("unexpected hot order: %+v", rows)
	}
}
