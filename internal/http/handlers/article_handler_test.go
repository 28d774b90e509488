package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/repo"
	"github.com/tbourn/go-blog-backend/internal/services"
)

type stubArticles struct {
	getErr, mutErr error
	lastFilter     repo.ArticleFilter
	lastInput      services.ArticleInput
	lastCallerID   uint
	lastRole       string
}

func (s *stubArticles) List(_ context.Context, filter repo.ArticleFilter, page, pageSize int) (*services.ArticlePage, error) {
	s.lastFilter = filter
	return &services.ArticlePage{Page: page, PageSize: pageSize, Total: 0, List: []domain.Article{}}, nil
}

func (s *stubArticles) Get(_ context.Context, id, callerID uint) (*services.ArticleView, error) {
	s.lastCallerID = callerID
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &services.ArticleView{
		Article:   domain.Article{ID: id, Title: "t"},
		LikeCount: 3,
	}, nil
}

func (s *stubArticles) Hot(_ context.Context) ([]domain.Article, error) {
	return []domain.Article{{ID: 1}, {ID: 2}}, nil
}

func (s *stubArticles) Create(_ context.Context, authorID uint, in services.ArticleInput) (*domain.Article, error) {
	s.lastCallerID = authorID
	s.lastInput = in
	if s.mutErr != nil {
		return nil, s.mutErr
	}
	return &domain.Article{ID: 9, Title: in.Title, AuthorID: authorID}, nil
}

func (s *stubArticles) Update(_ context.Context, id, callerID uint, role string, in services.ArticleInput) (*domain.Article, error) {
	s.lastCallerID, s.lastRole, s.lastInput = callerID, role, in
	if s.mutErr != nil {
		return nil, s.mutErr
	}
	return &domain.Article{ID: id, Title: in.Title}, nil
}

func (s *stubArticles) Delete(_ context.Context, id, callerID uint, role string) error {
	s.lastCallerID, s.lastRole = callerID, role
	return s.mutErr
}

func articleRouter(svc ArticleService, caller uint, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(svc, nil, nil, nil, nil)
	r := gin.New()
	if caller != 0 {
		r.Use(func(c *gin.Context) {
			c.Set("userID", caller)
			c.Set("role", role)
			c.Next()
		})
	}
	r.GET("/articles", h.ListArticles)
	r.GET("/articles/hot", h.HotArticles)
	r.GET("/articles/:id", h.GetArticle)
	r.POST("/articles", h.CreateArticle)
	r.PUT("/articles/:id", h.UpdateArticle)
	r.DELETE("/articles/:id", h.DeleteArticle)
	return r
}

func TestListArticles_FilterParsing(t *testing.T) {
	svc := &stubArticles{}
	r := articleRouter(svc, 0, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/articles?page=2&pageSize=5&status=published&categoryId=3&keyword=go", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.lastFilter.Status != "published" || svc.lastFilter.Keyword != "go" {
		t.Fatalf("filter not forwarded: %+v", svc.lastFilter)
	}
	if svc.lastFilter.CategoryID == nil || *svc.lastFilter.CategoryID != 3 {
		t.Fatalf("categoryId not forwarded: %+v", svc.lastFilter.CategoryID)
	}
}

func TestGetArticle_PassesCaller(t *testing.T) {
	svc := &stubArticles{}
	r := articleRouter(svc, 7, "user")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/42", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.lastCallerID != 7 {
		t.Fatalf("caller not forwarded, got %d", svc.lastCallerID)
	}
	var view services.ArticleView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("json: %v", err)
	}
	if view.ID != 42 || view.LikeCount != 3 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	r := articleRouter(&stubArticles{getErr: services.ErrArticleNotFound}, 0, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/42", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCreateArticle_Validation(t *testing.T) {
	svc := &stubArticles{mutErr: services.ErrEmptyTitle}
	r := articleRouter(svc, 7, "user")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/articles", bytes.NewBufferString(`{"content":"body"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateArticle_OK(t *testing.T) {
	svc := &stubArticles{}
	r := articleRouter(svc, 7, "user")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/articles",
		bytes.NewBufferString(`{"title":"hello","content":"body","status":"published"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.lastCallerID != 7 || svc.lastInput.Title != "hello" || svc.lastInput.Status != "published" {
		t.Fatalf("input not forwarded: caller=%d input=%+v", svc.lastCallerID, svc.lastInput)
	}
}

func TestUpdateArticle_Forbidden(t *testing.T) {
	r := articleRouter(&stubArticles{mutErr: services.ErrForbidden}, 8, "user")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/articles/42", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestDeleteArticle_PassesRole(t *testing.T) {
	svc := &stubArticles{}
	r := articleRouter(svc, 1, "admin")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/articles/42", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.lastRole != "admin" {
		t.Fatalf("role not forwarded, got %q", svc.lastRole)
	}
}
