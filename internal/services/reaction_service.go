// Package services – ReactionService
//
// This file implements the engagement use-cases: toggle-style likes and
// tri-state votes on articles. The service is the second line of defense
// beneath the HTTP idempotency guard: every operation is written so that
// repeated application converges to the same state. Likes rely on a unique
// (article, user, type) index with duplicate-insert translation; votes rely
// on a unique (article, user) index with upsert-by-natural-key; counts are
// always recomputed from rows instead of maintained as counters.
//
// Because like/vote state is embedded in the cached article detail view,
// every successful mutation invalidates that cache entry (cache-aside).
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/cache"
	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// ArticleCache is the narrow slice of the cache layer the services need:
// best-effort invalidation of cached read views.
type ArticleCache interface {
	Del(ctx context.Context, keys ...string) error
}

// LikeState is the outcome of a like/unlike operation.
type LikeState struct {
	ArticleID uint  `json:"articleId"`
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// VoteState is the outcome of a vote operation. Score is always Up - Down.
type VoteState struct {
	ArticleID uint  `json:"articleId"`
	Vote      int   `json:"vote"`
	Up        int64 `json:"up"`
	Down      int64 `json:"down"`
	Score     int64 `json:"voteScore"`
}

// ReactionService implements likes and votes over the relational store.
type ReactionService struct {
	// DB is the database handle used for all engagement operations.
	DB *gorm.DB
	// Cache is invalidated after successful mutations; nil disables
	// invalidation (tests).
	Cache ArticleCache
}

// Like records userID's like on articleID.
//
// Semantics:
//   - The article must exist; otherwise ErrArticleNotFound.
//   - If the caller already liked the article, the operation is a no-op and
//     the current count is returned. The unique index makes this hold even
//     if two requests race past the guard: the loser's insert is translated
//     to the same no-op outcome.
//   - The returned count is recomputed from reaction rows.
func (s *ReactionService) Like(ctx context.Context, articleID, userID uint) (*LikeState, error) {
	tr := otel.Tracer("services/ReactionService")
	ctx, span := tr.Start(ctx, "Like",
		trace.WithAttributes(
			attribute.Int64("article.id", int64(articleID)),
			attribute.Int64("user.id", int64(userID)),
		),
	)
	defer span.End()

	if err := s.ensureArticle(ctx, articleID); err != nil {
		return nil, err
	}

	err := repo.CreateReaction(ctx, s.DB, articleID, userID, domain.ReactionLike)
	switch {
	case err == nil:
		s.invalidate(ctx, articleID)
	case errors.Is(err, repo.ErrDuplicate):
		// Already liked; converge to the current state.
	default:
		return nil, err
	}

	count, err := repo.CountReactions(ctx, s.DB, articleID, domain.ReactionLike)
	if err != nil {
		return nil, err
	}
	return &LikeState{ArticleID: articleID, Liked: true, LikeCount: count}, nil
}

// Unlike removes userID's like on articleID. Removing an absent like is a
// no-op that still reports the current count.
func (s *ReactionService) Unlike(ctx context.Context, articleID, userID uint) (*LikeState, error) {
	if err := s.ensureArticle(ctx, articleID); err != nil {
		return nil, err
	}

	err := repo.DeleteReaction(ctx, s.DB, articleID, userID, domain.ReactionLike)
	switch {
	case err == nil:
		s.invalidate(ctx, articleID)
	case errors.Is(err, repo.ErrNotFound):
		// Nothing to remove.
	default:
		return nil, err
	}

	count, err := repo.CountReactions(ctx, s.DB, articleID, domain.ReactionLike)
	if err != nil {
		return nil, err
	}
	return &LikeState{ArticleID: articleID, Liked: false, LikeCount: count}, nil
}

// Vote sets userID's vote on articleID to value.
//
// Semantics:
//   - value must be 1, -1 or 0; otherwise ErrInvalidVote (checked before any
//     side effect).
//   - value 0 retracts: the vote row is deleted, deleting an absent row is
//     a no-op.
//   - value 1/-1 upserts against the (article, user) unique index, so the
//     operation is idempotent and converges under concurrent retries.
//   - Up/Down/Score are recomputed from rows on every call.
func (s *ReactionService) Vote(ctx context.Context, articleID, userID uint, value int) (*VoteState, error) {
	tr := otel.Tracer("services/ReactionService")
	ctx, span := tr.Start(ctx, "Vote",
		trace.WithAttributes(
			attribute.Int64("article.id", int64(articleID)),
			attribute.Int64("user.id", int64(userID)),
			attribute.Int("vote.value", value),
		),
	)
	defer span.End()

	if value != 1 && value != -1 && value != 0 {
		return nil, ErrInvalidVote
	}
	if err := s.ensureArticle(ctx, articleID); err != nil {
		return nil, err
	}

	var err error
	if value == 0 {
		err = repo.DeleteVote(ctx, s.DB, articleID, userID)
	} else {
		err = repo.UpsertVote(ctx, s.DB, articleID, userID, value)
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, articleID)

	up, down, err := repo.CountVotes(ctx, s.DB, articleID)
	if err != nil {
		return nil, err
	}
	return &VoteState{
		ArticleID: articleID,
		Vote:      value,
		Up:        up,
		Down:      down,
		Score:     up - down,
	}, nil
}

// ensureArticle maps a missing article to the service-level sentinel.
func (s *ReactionService) ensureArticle(ctx context.Context, articleID uint) error {
	_, err := repo.GetArticle(ctx, s.DB, articleID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrArticleNotFound
	}
	return err
}

// invalidate drops the cached article view. The cache is best-effort: an
// invalidation failure must not fail the mutation, the entry expires by TTL
// anyway.
func (s *ReactionService) invalidate(ctx context.Context, articleID uint) {
	if s.Cache == nil {
		return
	}
	_ = s.Cache.Del(ctx, cache.ArticleKey(articleID))
}
