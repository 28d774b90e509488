// Engagement HTTP handlers.
//
// This file exposes the REST endpoints for article engagement:
//   - POST /articles/{id}/like    (record a like; repeat is a no-op)
//   - POST /articles/{id}/unlike  (remove a like; absent is a no-op)
//   - POST /articles/{id}/vote    (set a vote: 1 up, -1 down, 0 retract)
//
// These endpoints sit behind the idempotency guard, but the handlers make no
// assumption about it: the services converge on repeated application, so a
// duplicate that slips past the guard still cannot double-count.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/services"
)

// VoteRequest is the JSON payload for setting a vote.
//
// Value must be one of:
//   - +1 : vote up
//   - -1 : vote down
//   - 0 : retract the current vote
//
// A pointer distinguishes an explicit 0 (retract) from a missing field.
type VoteRequest struct {
	Value *int `json:"value" binding:"required"`
}

// LikeArticle records the caller's like on an article. Liking an article the
// caller already likes returns the same state as the first call.
func (h *Handlers) LikeArticle(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}

	st, err := h.reactSvc.Like(c.Request.Context(), id, callerID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, st)
	case errors.Is(err, services.ErrArticleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record like")
	}
}

// UnlikeArticle removes the caller's like. Removing an absent like is a
// no-op that still reports the current count.
func (h *Handlers) UnlikeArticle(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}

	st, err := h.reactSvc.Unlike(c.Request.Context(), id, callerID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, st)
	case errors.Is(err, services.ErrArticleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not remove like")
	}
}

// VoteArticle sets the caller's vote on an article to the requested value.
func (h *Handlers) VoteArticle(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidVote, "value must be 1, -1 or 0")
		return
	}

	st, err := h.reactSvc.Vote(c.Request.Context(), id, callerID(c), *req.Value)
	switch {
	case err == nil:
		ok(c, http.StatusOK, st)
	case errors.Is(err, services.ErrInvalidVote):
		fail(c, http.StatusBadRequest, ErrCodeInvalidVote, "value must be 1, -1 or 0")
	case errors.Is(err, services.ErrArticleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record vote")
	}
}
