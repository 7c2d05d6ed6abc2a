package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/medagenda/backend/internal/domain"
	"github.com/medagenda/backend/pkg/auth"
)

// UserRepository is the identity lookup the service needs; the postgres user
// repository satisfies it.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// AuthService ties together credential verification, token issuance and the
// session registry.
type AuthService struct {
	users    UserRepository
	tokens   *auth.TokenManager
	registry *Registry
}

func NewAuthService(users UserRepository, tokens *auth.TokenManager, registry *Registry) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		registry: registry,
	}
}

// Login verifies username/password and starts a session. Unknown usernames,
// inactive accounts and wrong passwords all collapse into
// domain.ErrInvalidCredentials so responses leak nothing.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil || !user.Active || !auth.CheckPasswordHash(password, user.PasswordHash) {
		log.Printf("[AUTH] Login rejected for username %q", username)
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.StartSession(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// StartSession mints a token for an already-verified identity and records it
// as the identity's current session, superseding any prior one.
func (s *AuthService) StartSession(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.registry.Set(ctx, user.ID, token, s.tokens.TTL()); err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate runs the full per-request check: signature/claims, identity
// extraction, registry cross-check. The returned identity carries the exact
// presented token.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.Identity, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	identityID, err := claims.IdentityID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIdentityUnparseable, err)
	}

	current, err := s.registry.Get(ctx, identityID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrSessionRevoked
	}
	if err != nil {
		return nil, err
	}
	if current != tokenString {
		return nil, domain.ErrSessionRevoked
	}

	return &domain.Identity{
		ID:    identityID,
		Name:  claims.Name,
		Email: claims.Email,
		Token: tokenString,
	}, nil
}

// Logout ends the identity's session. The returned bool reports whether a
// session existed; logout is idempotent either way.
func (s *AuthService) Logout(ctx context.Context, identityID int64) (bool, error) {
	return s.registry.Delete(ctx, identityID)
}
