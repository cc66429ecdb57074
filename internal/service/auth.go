package service

import (
	"context"
	"crypto/subtle"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("auth")

// AuthService checks submitted keys against the single configured admin
// secret. It exists behind the usecase.KeyVerifier port so per-user
// credentials could replace it without touching the CRUD call sites.
type AuthService struct {
	secret string
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: secret}
}

// Verify reports whether the submitted key matches the configured
// secret. An empty secret disables authentication entirely: nothing
// matches it, not even an empty submission.
func (s *AuthService) Verify(ctx context.Context, submitted string) bool {
	_, span := tracer.Start(ctx, "Auth.Service.Verify")
	defer span.End()

	if s.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(s.secret)) == 1
}
