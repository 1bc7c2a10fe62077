package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/portal-admin/internal"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
)

// PrincipalLoader reads the identity of a user. GetPrincipal returns nil, nil
// for an unknown id; inactive users are returned with Active=false.
type PrincipalLoader interface {
	GetPrincipal(ctx context.Context, userID int64) (*coreUser.Principal, error)
}

type ServiceAPI interface {
	ValidateAccessToken(tokenString string) (*Claims, error)
	Authenticate(ctx context.Context, tokenString string) (*coreUser.Principal, error)
}

type Service struct {
	tokens     TokenGeneratorAPI
	principals PrincipalLoader
	logger     *slog.Logger
}

func NewService(tokens TokenGeneratorAPI, principals PrincipalLoader, logger *slog.Logger) *Service {
	return &Service{
		tokens:     tokens,
		principals: principals,
		logger:     logger,
	}
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// Authenticate turns a bearer token into the request's Principal. Role and
// active state always come from the user directory, never from the token.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*coreUser.Principal, error) {
	if tokenString == "" {
		return nil, internal.ErrUnauthenticated
	}

	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := claims.ID()
	if err != nil {
		s.logger.WarnContext(ctx, "token carries no usable user id", "error", err)
		return nil, internal.NewUnauthorizedError("Invalid token", internal.ErrCodeInvalidToken).WithCause(err)
	}

	p, err := s.principals.GetPrincipal(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load principal", "user_id", userID, "error", err)
		return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
	}
	if p == nil {
		s.logger.WarnContext(ctx, "token for unknown user", "user_id", userID)
		return nil, internal.ErrUnauthenticated
	}

	if !p.Active {
		s.logger.InfoContext(ctx, "inactive user authenticated", "user_id", userID)
	}
	return p, nil
}
