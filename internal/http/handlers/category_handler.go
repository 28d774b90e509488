// Category HTTP handlers.
//
// Endpoints:
//   - GET  /categories  (list the taxonomy)
//   - POST /categories  (create; admin only, enforced at the router)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/services"
)

// CreateCategoryRequest is the JSON payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListCategories returns all categories ordered by name.
func (h *Handlers) ListCategories(c *gin.Context) {
	res, err := h.catSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list categories")
		return
	}
	ok(c, http.StatusOK, res)
}

// CreateCategory inserts a new category.
func (h *Handlers) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name is required")
		return
	}

	cat, err := h.catSvc.Create(c.Request.Context(), req.Name)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, cat)
	case errors.Is(err, services.ErrEmptyTitle):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name is required")
	case errors.Is(err, services.ErrDuplicateCategory):
		fail(c, http.StatusConflict, ErrCodeConflict, "category already exists")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create category")
	}
}
