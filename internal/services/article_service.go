// Package services – ArticleService
//
// This file implements the article use-cases: paged listing, cached detail
// views enriched with engagement counts, the cached hot list, and the
// authorized create/update/delete mutations. The detail view follows the
// cache-aside pattern: the cached payload never contains caller-specific
// fields (liked/vote), which are layered on after the cache read.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/cache"
	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// ArticleView is the detail payload for a single article: the row plus
// engagement aggregates and, when the caller is authenticated, their own
// like/vote state.
type ArticleView struct {
	domain.Article
	LikeCount int64 `json:"likeCount"`
	Up        int64 `json:"up"`
	Down      int64 `json:"down"`
	VoteScore int64 `json:"voteScore"`
	// Caller-specific; never cached.
	Liked bool `json:"liked"`
	Vote  int  `json:"vote"`
}

// ArticlePage is one page of a listing.
type ArticlePage struct {
	List       []domain.Article `json:"list"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// ArticleInput carries the writable article fields for create/update.
type ArticleInput struct {
	Title      string
	Content    string
	Summary    string
	Cover      string
	CategoryID *uint
	Status     string
}

// ViewCache is the read/write slice of the cache layer used by read paths.
type ViewCache interface {
	ArticleCache
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ArticleService implements article CRUD and read views.
type ArticleService struct {
	DB         *gorm.DB
	Cache      ViewCache // nil disables caching (tests)
	ArticleTTL time.Duration
	HotTTL     time.Duration
	HotLimit   int
}

// List returns one page of articles. Page and pageSize are clamped to sane
// bounds; filtering is delegated to the repo layer.
func (s *ArticleService) List(ctx context.Context, filter repo.ArticleFilter, page, pageSize int) (*ArticlePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	rows, total, err := repo.ListArticles(ctx, s.DB, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ArticlePage{
		List:       rows,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get returns the enriched detail view for an article and bumps its read
// counter. The shared portion (row + aggregate counts) is served cache-aside
// under cache.ArticleKey(id); caller-specific fields are resolved per
// request and never stored.
func (s *ArticleService) Get(ctx context.Context, id uint, callerID uint) (*ArticleView, error) {
	var view ArticleView
	hit := false
	if s.Cache != nil {
		if err := s.Cache.Get(ctx, cache.ArticleKey(id), &view); err == nil {
			hit = true
		}
	}

	if !hit {
		a, err := repo.GetArticle(ctx, s.DB, id)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		if err != nil {
			return nil, err
		}

		likeCount, err := repo.CountReactions(ctx, s.DB, id, domain.ReactionLike)
		if err != nil {
			return nil, err
		}
		up, down, err := repo.CountVotes(ctx, s.DB, id)
		if err != nil {
			return nil, err
		}
		view = ArticleView{
			Article:   *a,
			LikeCount: likeCount,
			Up:        up,
			Down:      down,
			VoteScore: up - down,
		}
		if s.Cache != nil {
			_ = s.Cache.Set(ctx, cache.ArticleKey(id), view, s.articleTTL())
		}
	}

	// Caller-specific state is layered on after the cache read.
	if callerID != 0 {
		if _, err := repo.GetReaction(ctx, s.DB, id, callerID, domain.ReactionLike); err == nil {
			view.Liked = true
		}
		if v, err := repo.GetVote(ctx, s.DB, id, callerID); err == nil {
			view.Vote = v.Value
		}
	}

	_ = repo.IncrementReadCount(ctx, s.DB, id)
	return &view, nil
}

// Hot returns the most-read published articles, cached under
// cache.HotArticlesKey for a short TTL.
func (s *ArticleService) Hot(ctx context.Context) ([]domain.Article, error) {
	if s.Cache != nil {
		var cached []domain.Article
		if err := s.Cache.Get(ctx, cache.HotArticlesKey, &cached); err == nil {
			return cached, nil
		}
	}

	limit := s.HotLimit
	if limit <= 0 {
		limit = 10
	}
	rows, err := repo.ListHotArticles(ctx, s.DB, limit)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, cache.HotArticlesKey, rows, s.hotTTL())
	}
	return rows, nil
}

// Create inserts a new article authored by authorID. Publishing stamps the
// publication time; the hot list and any cached views are invalidated.
func (s *ArticleService) Create(ctx context.Context, authorID uint, in ArticleInput) (*domain.Article, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrEmptyTitle
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrEmptyContent
	}
	status := in.Status
	if status == "" {
		status = domain.ArticleStatusDraft
	}
	if in.CategoryID != nil {
		if _, err := repo.GetCategory(ctx, s.DB, *in.CategoryID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}

	a := &domain.Article{
		Title:      in.Title,
		Content:    in.Content,
		Summary:    in.Summary,
		Cover:      in.Cover,
		AuthorID:   authorID,
		CategoryID: in.CategoryID,
		Status:     status,
	}
	if status == domain.ArticleStatusPublished {
		now := time.Now().UTC()
		a.PublishTime = &now
	}
	if err := repo.CreateArticle(ctx, s.DB, a); err != nil {
		return nil, err
	}

	s.invalidateLists(ctx)
	return a, nil
}

// Update modifies an article. Only the author or an admin may update; moving
// from draft to published stamps the publication time.
func (s *ArticleService) Update(ctx context.Context, id, callerID uint, callerRole string, in ArticleInput) (*domain.Article, error) {
	existing, err := repo.GetArticle(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != callerID && callerRole != "admin" {
		return nil, ErrForbidden
	}

	updates := map[string]any{}
	if strings.TrimSpace(in.Title) != "" {
		updates["title"] = in.Title
	}
	if strings.TrimSpace(in.Content) != "" {
		updates["content"] = in.Content
	}
	if in.Summary != "" {
		updates["summary"] = in.Summary
	}
	if in.Cover != "" {
		updates["cover"] = in.Cover
	}
	if in.CategoryID != nil {
		if _, err := repo.GetCategory(ctx, s.DB, *in.CategoryID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		updates["category_id"] = *in.CategoryID
	}
	if in.Status != "" {
		updates["status"] = in.Status
		if in.Status == domain.ArticleStatusPublished && existing.Status != domain.ArticleStatusPublished {
			updates["publish_time"] = time.Now().UTC()
		}
	}

	if len(updates) > 0 {
		if err := repo.UpdateArticle(ctx, s.DB, id, updates); err != nil {
			return nil, err
		}
	}

	if s.Cache != nil {
		_ = s.Cache.Del(ctx, cache.ArticleKey(id))
	}
	s.invalidateLists(ctx)

	return repo.GetArticle(ctx, s.DB, id)
}

// Delete removes an article. Only the author or an admin may delete.
func (s *ArticleService) Delete(ctx context.Context, id, callerID uint, callerRole string) error {
	existing, err := repo.GetArticle(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrArticleNotFound
	}
	if err != nil {
		return err
	}
	if existing.AuthorID != callerID && callerRole != "admin" {
		return ErrForbidden
	}

	if err := repo.DeleteArticle(ctx, s.DB, id); err != nil {
		return err
	}
	if s.Cache != nil {
		_ = s.Cache.Del(ctx, cache.ArticleKey(id))
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *ArticleService) invalidateLists(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	_ = s.Cache.Del(ctx, cache.HotArticlesKey)
}

func (s *ArticleService) articleTTL() time.Duration {
	if s.ArticleTTL > 0 {
		return s.ArticleTTL
	}
	return time.Hour
}

func (s *ArticleService) hotTTL() time.Duration {
	if s.HotTTL > 0 {
		return s.HotTTL
	}
	return 5 * time.Minute
}
