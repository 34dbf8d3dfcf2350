package auth

import (
	"context"
	"errors"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues and verifies the bearer tokens that tie files and
// jobs to an owner. Registration and login are optional; anonymous use
// is fully supported.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.User, string, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	// VerifyToken returns the user id embedded in a valid token.
	VerifyToken(token string) (int64, error)
}
