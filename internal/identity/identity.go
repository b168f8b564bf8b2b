// Package identity verifies the bearer tokens issued by the identity provider.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
)

// Claims are the token claims the provider signs. The subject claim carries
// the provider uid.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 identity tokens.
type Service struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

func New(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
}

// Issue mints a token for uid/email. Used by tests and local tooling.
func (s *Service) Issue(uid, email string, expiresIn time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Verify validates the signature, expiry and issuer and returns the subject.
func (s *Service) Verify(_ context.Context, tokenString string) (id.Subject, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.Subject{}, dErrors.New(dErrors.CodeForbidden, "token has expired")
		}
		return id.Subject{}, dErrors.New(dErrors.CodeForbidden, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.Subject{}, dErrors.New(dErrors.CodeForbidden, "invalid token claims")
	}
	if claims.Email == "" {
		return id.Subject{}, dErrors.New(dErrors.CodeForbidden, "token carries no email")
	}
	return id.Subject{UID: claims.Subject, Email: claims.Email}, nil
}
