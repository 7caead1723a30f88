package domain

import "errors"

// Authentication and authorization failures.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("access forbidden")
	ErrRateLimited        = errors.New("too many login attempts")
)

// Account uniqueness conflicts.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

// Lookup failures.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrBlogNotFound    = errors.New("blog not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// Input that passed transport validation but is unusable once normalised.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrImageTooLarge = errors.New("image is too large")
)
