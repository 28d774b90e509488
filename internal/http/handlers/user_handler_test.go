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
	"github.com/tbourn/go-blog-backend/internal/services"
)

type stubUsers struct {
	updateErr   error
	deleteErr   error
	lastInput   services.UserInput
	lastCaller  uint
	lastRole    string
	lastKeyword string
	deleteCalls int
}

func (s *stubUsers) Current(_ context.Context, callerID uint) (*domain.User, error) {
	return &domain.User{ID: callerID, Username: "alice"}, nil
}

func (s *stubUsers) Get(_ context.Context, id uint) (*domain.User, error) {
	if id == 99 {
		return nil, services.ErrUserNotFound
	}
	return &domain.User{ID: id, Username: "bob"}, nil
}

func (s *stubUsers) List(_ context.Context, keyword string, page, pageSize int) (*services.UserPage, error) {
	s.lastKeyword = keyword
	return &services.UserPage{
		List:     []domain.User{{ID: 1, Username: "alice"}},
		Total:    1,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *stubUsers) Update(_ context.Context, id, callerID uint, callerRole string, in services.UserInput) (*domain.User, error) {
	s.lastCaller, s.lastRole, s.lastInput = callerID, callerRole, in
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &domain.User{ID: id, Username: "bob", Email: in.Email, Avatar: in.Avatar}, nil
}

func (s *stubUsers) Delete(_ context.Context, id, callerID uint, callerRole string) error {
	s.deleteCalls++
	s.lastCaller, s.lastRole = callerID, callerRole
	return s.deleteErr
}

func userRouter(svc UserService, caller uint, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, nil, nil, svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if caller != 0 {
			c.Set("userID", caller)
			c.Set("role", role)
		}
		c.Next()
	})
	r.GET("/users", h.ListUsers)
	r.GET("/users/current", h.CurrentUser)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)
	return r
}

func TestCurrentUser(t *testing.T) {
	r := userRouter(&stubUsers{}, 7, "user")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/current", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var u domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("json: %v", err)
	}
	if u.ID != 7 {
		t.Fatalf("expected caller's own account, got %+v", u)
	}
}

func TestListUsers_KeywordForwarded(t *testing.T) {
	svc := &stubUsers{}
	r := userRouter(svc, 9, "admin")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users?page=2&pageSize=5&keyword=ali", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.lastKeyword != "ali" {
		t.Fatalf("keyword not forwarded, got %q", svc.lastKeyword)
	}
	var page services.UserPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	if page.Page != 2 || page.PageSize != 5 {
		t.Fatalf("paging not forwarded: %+v", page)
	}
}

func TestGetUser_NotFoundAndBadID(t *testing.T) {
	r := userRouter(&stubUsers{}, 7, "user")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/99", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing user: status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", w.Code)
	}
}

func TestUpdateUser_CallerForwarded(t *testing.T) {
	svc := &stubUsers{}
	r := userRouter(svc, 7, "user")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/7",
		bytes.NewBufferString(`{"email":"alice@example.com","avatar":"https://cdn/a.png"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.lastCaller != 7 || svc.lastRole != "user" {
		t.Fatalf("caller identity not forwarded: id=%d role=%q", svc.lastCaller, svc.lastRole)
	}
	if svc.lastInput.Email != "alice@example.com" || svc.lastInput.Avatar != "https://cdn/a.png" {
		t.Fatalf("payload not forwarded: %+v", svc.lastInput)
	}
}

func TestUpdateUser_ForbiddenAndBadEmail(t *testing.T) {
	r := userRouter(&stubUsers{updateErr: services.ErrForbidden}, 8, "user")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/7", bytes.NewBufferString(`{"avatar":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger update: status=%d", w.Code)
	}

	// Malformed email is rejected before the service runs.
	svc := &stubUsers{}
	r = userRouter(svc, 7, "user")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/users/7", bytes.NewBufferString(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad email: status=%d", w.Code)
	}
	if svc.lastInput.Email != "" {
		t.Fatalf("service must not see a malformed email")
	}
}

func TestDeleteUser_SelfDeletionForbidden(t *testing.T) {
	r := userRouter(&stubUsers{deleteErr: services.ErrSelfDeletion}, 9, "admin")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/users/9", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	svc := &stubUsers{}
	r = userRouter(svc, 9, "admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/users/7", nil))
	if w.Code != http.StatusNoContent || svc.deleteCalls != 1 {
		t.Fatalf("delete: status=%d calls=%d", w.Code, svc.deleteCalls)
	}
}
