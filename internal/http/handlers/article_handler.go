// Article HTTP handlers.
//
// This file exposes the REST endpoints for article resources:
//   - GET    /articles           (list, paginated, filterable)
//   - GET    /articles/hot       (most-read published articles)
//   - GET    /articles/{id}      (detail view with engagement counts)
//   - POST   /articles           (create)
//   - PUT    /articles/{id}      (update)
//   - DELETE /articles/{id}      (delete)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate domain/service errors into HTTP results.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/repo"
	"github.com/tbourn/go-blog-backend/internal/services"
	"github.com/tbourn/go-blog-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ArticleService defines article operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ArticleService interface {
	// List returns one page of articles matching filter.
	List(ctx context.Context, filter repo.ArticleFilter, page, pageSize int) (*services.ArticlePage, error)
	// Get returns the enriched detail view, personalized for callerID (0 = anonymous).
	Get(ctx context.Context, id uint, callerID uint) (*services.ArticleView, error)
	// Hot returns the most-read published articles.
	Hot(ctx context.Context) ([]domain.Article, error)
	// Create inserts a new article authored by authorID.
	Create(ctx context.Context, authorID uint, in services.ArticleInput) (*domain.Article, error)
	// Update modifies an article, subject to ownership checks.
	Update(ctx context.Context, id, callerID uint, callerRole string, in services.ArticleInput) (*domain.Article, error)
	// Delete removes an article, subject to ownership checks.
	Delete(ctx context.Context, id, callerID uint, callerRole string) error
}

// ReactionService defines the engagement operations consumed by HTTP handlers.
type ReactionService interface {
	Like(ctx context.Context, articleID, userID uint) (*services.LikeState, error)
	Unlike(ctx context.Context, articleID, userID uint) (*services.LikeState, error)
	Vote(ctx context.Context, articleID, userID uint, value int) (*services.VoteState, error)
}

// CategoryService defines taxonomy operations consumed by HTTP handlers.
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
}

// StatsService defines analytics operations consumed by HTTP handlers.
type StatsService interface {
	Overview(ctx context.Context) (*repo.Overview, error)
	RecordBrowsing(ctx context.Context, userID *uint, page string, seconds float64) error
	TopPages(ctx context.Context, limit int) ([]domain.BrowsingStat, error)
}

// UserService defines account operations consumed by HTTP handlers.
type UserService interface {
	Current(ctx context.Context, callerID uint) (*domain.User, error)
	Get(ctx context.Context, id uint) (*domain.User, error)
	List(ctx context.Context, keyword string, page, pageSize int) (*services.UserPage, error)
	Update(ctx context.Context, id, callerID uint, callerRole string, in services.UserInput) (*domain.User, error)
	Delete(ctx context.Context, id, callerID uint, callerRole string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for articles, engagement, categories,
// stats, and users. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	artSvc   ArticleService
	reactSvc ReactionService
	catSvc   CategoryService
	statsSvc StatsService
	userSvc  UserService
}

// New constructs a Handlers instance bound to the given services.
func New(artSvc ArticleService, reactSvc ReactionService, catSvc CategoryService, statsSvc StatsService, userSvc UserService) *Handlers {
	return &Handlers{artSvc: artSvc, reactSvc: reactSvc, catSvc: catSvc, statsSvc: statsSvc, userSvc: userSvc}
}

// callerID returns the authenticated user ID, or 0 for anonymous requests.
func callerID(c *gin.Context) uint {
	id, _ := middleware.UserID(c)
	return id
}

// articleID parses the :id path parameter; a false result means the handler
// already responded with 400.
func articleID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid article id")
	}
	return id, ok
}

// ArticleRequest is the JSON payload for creating or updating an article.
type ArticleRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Summary    string `json:"summary"`
	Cover      string `json:"cover"`
	CategoryID *uint  `json:"categoryId"`
	Status     string `json:"status" binding:"omitempty,oneof=draft published"`
}

func (r *ArticleRequest) input() services.ArticleInput {
	return services.ArticleInput{
		Title:      r.Title,
		Content:    r.Content,
		Summary:    r.Summary,
		Cover:      r.Cover,
		CategoryID: r.CategoryID,
		Status:     r.Status,
	}
}

// ListArticles returns one page of articles. Query parameters: page,
// pageSize, status, categoryId, keyword.
func (h *Handlers) ListArticles(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("pageSize"), 10)

	filter := repo.ArticleFilter{
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
	}
	if cid, ok := utils.ParseID(c.Query("categoryId")); ok {
		filter.CategoryID = &cid
	}

	res, err := h.artSvc.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list articles")
		return
	}
	ok(c, http.StatusOK, res)
}

// HotArticles returns the most-read published articles.
func (h *Handlers) HotArticles(c *gin.Context) {
	res, err := h.artSvc.Hot(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list hot articles")
		return
	}
	ok(c, http.StatusOK, res)
}

// GetArticle returns the detail view for one article, personalized when the
// caller is authenticated.
func (h *Handlers) GetArticle(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}

	view, err := h.artSvc.Get(c.Request.Context(), id, callerID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, view)
	case errors.Is(err, services.ErrArticleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load article")
	}
}

// CreateArticle inserts a new article authored by the caller.
func (h *Handlers) CreateArticle(c *gin.Context) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid article payload")
		return
	}

	a, err := h.artSvc.Create(c.Request.Context(), callerID(c), req.input())
	switch {
	case err == nil:
		ok(c, http.StatusCreated, a)
	case errors.Is(err, services.ErrEmptyTitle):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title is required")
	case errors.Is(err, services.ErrEmptyContent):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
	case errors.Is(err, services.ErrCategoryNotFound):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category does not exist")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create article")
	}
}

// UpdateArticle modifies an existing article owned by the caller (or any
// article when the caller is an admin).
func (h *Handlers) UpdateArticle(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid article payload")
		return
	}

	a, err := h.artSvc.Update(c.Request.Context(), id, callerID(c), middleware.Role(c), req.input())
	switch {
	case err == nil:
		ok(c, http.StatusOK, a)
	case errors.Is(err, services.ErrArticleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to modify this article")
	case errors.Is(err, services.ErrCategoryNotFound):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category does not exist")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update article")
	}
}

// DeleteArticle removes an article owned by the caller (or any article when
// the caller is an admin).
func (h *Handlers) DeleteArticle(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}

	err := h.artSvc.Delete(c.Request.Context(), id, callerID(c), middleware.Role(c))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrArticleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to delete this article")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete article")
	}
}
