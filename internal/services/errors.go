// Package services defines the business logic for articles, categories,
// users, engagement (likes/votes), and analytics. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; the
// translation into HTTP status codes is performed in exactly one place, the
// handler layer. Business logic never signals outcomes through error message
// text.
package services

import "errors"

var (
	// ErrArticleNotFound indicates that the requested article does not exist.
	ErrArticleNotFound = errors.New("article not found")

	// ErrCategoryNotFound indicates that the referenced category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrUserNotFound indicates that the requested user account does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden is returned when a caller attempts to modify a resource
	// they neither own nor administer.
	ErrForbidden = errors.New("not allowed to modify this resource")

	// ErrSelfDeletion is returned when an admin tries to delete their own
	// account.
	ErrSelfDeletion = errors.New("cannot delete own account")

	// ErrInvalidVote is returned when a vote value is outside the allowed
	// set {1, -1, 0}.
	ErrInvalidVote = errors.New("vote value must be 1, -1 or 0")

	// ErrEmptyTitle is returned when an article is submitted without a title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrEmptyContent is returned when an article is submitted without content.
	ErrEmptyContent = errors.New("content is empty")

	// ErrDuplicateCategory is returned when a category name or slug already exists.
	ErrDuplicateCategory = errors.New("category already exists")

	// ErrInvalidPage is returned when a browsing-stat report names no page.
	ErrInvalidPage = errors.New("page identifier is empty")
)
