// Package services – UserService
//
// This file implements account management: the admin user directory, the
// current-user profile, and profile update/removal with ownership checks.
// Credential handling (registration, password changes, token issuance) is the
// identity provider's job and is deliberately absent here; the service only
// manages the profile fields of already-provisioned accounts.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// UserPage is one page of the user directory.
type UserPage struct {
	List       []domain.User `json:"list"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// UserInput carries the writable profile fields. Empty fields are left
// untouched.
type UserInput struct {
	Email  string
	Avatar string
}

// UserService implements account listing and profile management.
type UserService struct {
	DB *gorm.DB
}

// Current returns the authenticated caller's own account.
func (s *UserService) Current(ctx context.Context, callerID uint) (*domain.User, error) {
	return s.get(ctx, callerID)
}

// Get returns one account by id, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.get(ctx, id)
}

// List returns one page of the user directory, newest accounts first. A
// non-empty keyword narrows by username. Page and pageSize are clamped the
// same way article listings are.
func (s *UserService) List(ctx context.Context, keyword string, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	rows, total, err := repo.ListUsers(ctx, s.DB, keyword, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &UserPage{
		List:       rows,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update modifies a user's profile. Only the account owner or an admin may
// update; untouched fields keep their values.
func (s *UserService) Update(ctx context.Context, id, callerID uint, callerRole string, in UserInput) (*domain.User, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	if id != callerID && callerRole != "admin" {
		return nil, ErrForbidden
	}

	updates := map[string]any{}
	if strings.TrimSpace(in.Email) != "" {
		updates["email"] = in.Email
	}
	if strings.TrimSpace(in.Avatar) != "" {
		updates["avatar"] = in.Avatar
	}
	if len(updates) > 0 {
		if err := repo.UpdateUser(ctx, s.DB, id, updates); err != nil {
			return nil, err
		}
	}

	return s.get(ctx, id)
}

// Delete removes a user account. Only admins may delete, and never their own
// account; the self-deletion guard keeps the last admin from locking the
// system.
func (s *UserService) Delete(ctx context.Context, id, callerID uint, callerRole string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if callerRole != "admin" {
		return ErrForbidden
	}
	if id == callerID {
		return ErrSelfDeletion
	}
	return repo.DeleteUser(ctx, s.DB, id)
}

// get maps the repo-level absence to the service-level sentinel.
func (s *UserService) get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
