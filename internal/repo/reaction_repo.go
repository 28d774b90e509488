// Package repo – reaction and vote persistence.
//
// These helpers implement the data-layer half of the engagement semantics:
// unique indexes make duplicate likes/votes impossible to persist, and every
// count is recomputed from rows rather than read from a denormalized counter,
// which trades a cheap read for the absence of counter-drift bugs.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// GetReaction loads the reaction row for (articleID, userID, typ), or
// ErrNotFound.
func GetReaction(ctx context.Context, db *gorm.DB, articleID, userID uint, typ string) (*domain.ArticleReaction, error) {
	var rec domain.ArticleReaction
	err := db.WithContext(ctx).
		Where("article_id = ? AND user_id = ? AND type = ?", articleID, userID, typ).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateReaction inserts a reaction row and returns ErrDuplicate when the
// (article, user, type) unique index rejects it. Callers treat ErrDuplicate
// as "already liked" rather than surfacing a constraint error.
func CreateReaction(ctx context.Context, db *gorm.DB, articleID, userID uint, typ string) error {
	rec := domain.ArticleReaction{
		ArticleID: articleID,
		UserID:    userID,
		Type:      typ,
		Value:     1,
	}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteReaction removes the reaction row for (articleID, userID, typ).
// Returns ErrNotFound when no row was deleted.
func DeleteReaction(ctx context.Context, db *gorm.DB, articleID, userID uint, typ string) error {
	res := db.WithContext(ctx).
		Where("article_id = ? AND user_id = ? AND type = ?", articleID, userID, typ).
		Delete(&domain.ArticleReaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountReactions recounts reaction rows of the given type for an article.
func CountReactions(ctx context.Context, db *gorm.DB, articleID uint, typ string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.ArticleReaction{}).
		Where("article_id = ? AND type = ? AND value = 1", articleID, typ).
		Count(&n).Error
	return n, err
}

// GetVote loads the live vote row for (articleID, userID), or ErrNotFound.
func GetVote(ctx context.Context, db *gorm.DB, articleID, userID uint) (*domain.ArticleVote, error) {
	var rec domain.ArticleVote
	err := db.WithContext(ctx).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertVote sets the caller's vote to value (+1 or -1): the existing row is
// updated in place, otherwise a row is inserted. A concurrent insert that
// loses the (article, user) unique race falls back to an update, so the
// operation converges under retries.
func UpsertVote(ctx context.Context, db *gorm.DB, articleID, userID uint, value int) error {
	res := db.WithContext(ctx).Model(&domain.ArticleVote{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	rec := domain.ArticleVote{ArticleID: articleID, UserID: userID, Value: value}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicateErr(err) {
			// Lost an insert race; the row exists now, update it.
			return db.WithContext(ctx).Model(&domain.ArticleVote{}).
				Where("article_id = ? AND user_id = ?", articleID, userID).
				Update("value", value).Error
		}
		return err
	}
	return nil
}

// DeleteVote removes the caller's vote row. Deleting an absent row is a
// no-op, matching the retraction semantics of vote value 0.
func DeleteVote(ctx context.Context, db *gorm.DB, articleID, userID uint) error {
	return db.WithContext(ctx).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Delete(&domain.ArticleVote{}).Error
}

// CountVotes recounts up/down vote rows for an article.
func CountVotes(ctx context.Context, db *gorm.DB, articleID uint) (up, down int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.ArticleVote{}).
		Where("article_id = ? AND value = 1", articleID).
		Count(&up).Error; err != nil {
		return 0, 0, err
	}
	if err = db.WithContext(ctx).Model(&domain.ArticleVote{}).
		Where("article_id = ? AND value = -1", articleID).
		Count(&down).Error; err != nil {
		return 0, 0, err
	}
	return up, down, nil
}
