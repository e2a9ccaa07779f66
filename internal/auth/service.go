// Package auth adapts the identity provider: it validates credentials,
// issues sessions, and resolves the per-request Actor the order engine
// consumes. The engine itself never sees credentials.
package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/orderflow/orderflow/internal/shared"
	"github.com/orderflow/orderflow/internal/users"
)

// Service wraps authentication business rules.
type Service struct {
	repo users.Repository
}

// NewService constructs a new Service.
func NewService(repo users.Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials and returns the
// matching active account. Failures are indistinguishable by cause.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.Role.Valid() {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}
