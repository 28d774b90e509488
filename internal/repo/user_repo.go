// Package repo – user persistence helpers.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// GetUser loads a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetActiveUser loads a user by id and additionally requires status
// "active"; disabled users are reported as ErrNotFound so authentication
// treats them like missing accounts.
func GetActiveUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	u, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if u.Status != "active" {
		return nil, ErrNotFound
	}
	return u, nil
}

// ListUsers returns one page of users, newest first, along with the total
// match count. A non-empty keyword narrows by username (LIKE).
func ListUsers(ctx context.Context, db *gorm.DB, keyword string, offset, limit int) ([]domain.User, int64, error) {
	q := db.WithContext(ctx).Model(&domain.User{})
	if keyword != "" {
		q = q.Where("username LIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.User
	err := q.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateUser applies the given column updates to a user.
func UpdateUser(ctx context.Context, db *gorm.DB, id uint, updates map[string]any) error {
	res := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser soft-deletes a user account.
func DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
