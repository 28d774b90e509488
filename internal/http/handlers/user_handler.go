// User HTTP handlers.
//
// Endpoints:
//   - GET    /users          (paged directory; admin only at the router)
//   - GET    /users/current  (the caller's own account)
//   - GET    /users/:id      (account detail)
//   - PUT    /users/:id      (profile update; owner or admin)
//   - DELETE /users/:id      (admin only at the router; never self)
//
// There is no create endpoint: account provisioning and credential handling
// live outside this service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/services"
	"github.com/tbourn/go-blog-backend/internal/utils"
)

// UserRequest is the JSON payload for updating a profile.
type UserRequest struct {
	Email  string `json:"email" binding:"omitempty,email"`
	Avatar string `json:"avatar"`
}

// CurrentUser returns the authenticated caller's account.
func (h *Handlers) CurrentUser(c *gin.Context) {
	u, err := h.userSvc.Current(c.Request.Context(), callerID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, u)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load user")
	}
}

// ListUsers returns one page of the user directory. Query parameters: page,
// pageSize, keyword.
func (h *Handlers) ListUsers(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("pageSize"), 10)

	res, err := h.userSvc.List(c.Request.Context(), c.Query("keyword"), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list users")
		return
	}
	ok(c, http.StatusOK, res)
}

// GetUser returns one account by id.
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := userID(c)
	if !valid {
		return
	}

	u, err := h.userSvc.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, u)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load user")
	}
}

// UpdateUser modifies a profile owned by the caller (or any profile when the
// caller is an admin).
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, valid := userID(c)
	if !valid {
		return
	}
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid user payload")
		return
	}

	u, err := h.userSvc.Update(c.Request.Context(), id, callerID(c), middleware.Role(c),
		services.UserInput{Email: req.Email, Avatar: req.Avatar})
	switch {
	case err == nil:
		ok(c, http.StatusOK, u)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to modify this user")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update user")
	}
}

// DeleteUser removes an account. Admin role is enforced at the router; the
// service additionally refuses self-deletion.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, valid := userID(c)
	if !valid {
		return
	}

	err := h.userSvc.Delete(c.Request.Context(), id, callerID(c), middleware.Role(c))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrSelfDeletion):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to delete this user")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete user")
	}
}

// userID parses the :id path parameter; a false result means the handler
// already responded with 400.
func userID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid user id")
	}
	return id, ok
}
