// Stats HTTP handlers.
//
// Endpoints:
//   - GET  /stats/overview  (dashboard aggregates; admin only at the router)
//   - GET  /stats/pages     (top browsed pages; admin only at the router)
//   - POST /stats/browsing  (browsing-time telemetry reported by clients)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/services"
	"github.com/tbourn/go-blog-backend/internal/utils"
)

// BrowseRequest is the JSON payload for reporting time spent on a page.
type BrowseRequest struct {
	Page    string  `json:"page" binding:"required"`
	Seconds float64 `json:"seconds"`
}

// StatsOverview returns site-wide aggregates for the dashboard.
func (h *Handlers) StatsOverview(c *gin.Context) {
	res, err := h.statsSvc.Overview(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not compute overview")
		return
	}
	ok(c, http.StatusOK, res)
}

// TopPages returns the pages with the most accumulated view time. Query
// parameter: limit.
func (h *Handlers) TopPages(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	res, err := h.statsSvc.TopPages(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list pages")
		return
	}
	ok(c, http.StatusOK, res)
}

// RecordBrowsing accumulates reported view time for a page. Anonymous
// reports are accepted and stored without a user.
func (h *Handlers) RecordBrowsing(c *gin.Context) {
	var req BrowseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "page is required")
		return
	}

	var userID *uint
	if id, okAuth := middleware.UserID(c); okAuth {
		userID = &id
	}

	err := h.statsSvc.RecordBrowsing(c.Request.Context(), userID, req.Page, req.Seconds)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrInvalidPage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "page is required")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record browsing")
	}
}
