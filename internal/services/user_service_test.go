package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

func seedUser(t *testing.T, db *gorm.DB, id uint, username, role string) {
	t.Helper()
	u := domain.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
		Status:   "active",
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %d: %v", id, err)
	}
}

func TestUserCurrentAndGet(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, 7, "alice", "user")
	svc := &UserService{DB: db}
	ctx := context.Background()

	u, err := svc.Current(ctx, 7)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("unexpected account: %+v", u)
	}

	if _, err := svc.Get(ctx, 99); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserList_KeywordAndPaging(t *testing.T) {
	db := newServiceDB(t)
	base := time.Now().UTC()
	for i, name := range []string{"alice", "bob", "alfred", "carol"} {
		u := domain.User{
			Username:  name,
			Email:     name + "@example.com",
			Password:  "x",
			Role:      "user",
			Status:    "active",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	svc := &UserService{DB: db}
	ctx := context.Background()

	page, err := svc.List(ctx, "", 1, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 4 || len(page.List) != 3 || page.TotalPages != 2 {
		t.Fatalf("unexpected page: total=%d n=%d pages=%d", page.Total, len(page.List), page.TotalPages)
	}
	// Newest account first.
	if page.List[0].Username != "carol" {
		t.Fatalf("expected carol first, got %q", page.List[0].Username)
	}

	page, err = svc.List(ctx, "al", 1, 10)
	if err != nil {
		t.Fatalf("keyword list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("keyword 'al' should match alice and alfred, got %d", page.Total)
	}

	// Clamps mirror article listings.
	page, err = svc.List(ctx, "", 0, 1000)
	if err != nil || page.Page != 1 || page.PageSize != 100 {
		t.Fatalf("clamping failed: %+v err=%v", page, err)
	}
}

func TestUserUpdate_Authorization(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, 7, "alice", "user")
	seedUser(t, db, 8, "bob", "user")
	seedUser(t, db, 9, "root", "admin")
	svc := &UserService{DB: db}
	ctx := context.Background()

	// Owner may update; empty fields are untouched.
	u, err := svc.Update(ctx, 7, 7, "user", UserInput{Avatar: "https://cdn/a.png"})
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if u.Avatar != "https://cdn/a.png" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", u)
	}

	// A stranger may not.
	if _, err := svc.Update(ctx, 7, 8, "user", UserInput{Email: "evil@example.com"}); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// An admin may.
	u, err = svc.Update(ctx, 7, 9, "admin", UserInput{Email: "alice@corp.example.com"})
	if err != nil || u.Email != "alice@corp.example.com" {
		t.Fatalf("admin update: %+v err=%v", u, err)
	}

	if _, err := svc.Update(ctx, 99, 9, "admin", UserInput{}); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserDelete_AdminOnlyNeverSelf(t *testing.T) {
	db := newServiceDB(t)
	seedUser(t, db, 7, "alice", "user")
	seedUser(t, db, 9, "root", "admin")
	svc := &UserService{DB: db}
	ctx := context.Background()

	if err := svc.Delete(ctx, 7, 7, "user"); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if err := svc.Delete(ctx, 9, 9, "admin"); err != ErrSelfDeletion {
		t.Fatalf("expected ErrSelfDeletion, got %v", err)
	}
	if err := svc.Delete(ctx, 7, 9, "admin"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := svc.Get(ctx, 7); err != ErrUserNotFound {
		t.Fatalf("expected account gone, got %v", err)
	}
	if err := svc.Delete(ctx, 7, 9, "admin"); err != ErrUserNotFound {
		t.Fatalf("double delete: expected ErrUserNotFound, got %v", err)
	}
}
