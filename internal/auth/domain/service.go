package domain

import (
	"context"
	"errors"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Principal is the authenticated operator of a request.
type Principal struct {
	Username string
	Role     string
}

type Service interface {
	Authenticate(ctx context.Context, username, password string) (Principal, error)
	// Authorize checks whether p may perform method on path.
	Authorize(ctx context.Context, p Principal, path, method string) error
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrNotConfigured      = errors.New("auth_not_configured")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidRole        = errors.New("invalid_role")
)

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}
