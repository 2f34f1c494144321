package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Claims is the payload of a session token: the registered claims (sub, iat,
// exp, jti) plus the user's email at issuance.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is what a session token vouches for.
type Identity struct {
	Subject string
	Email   string
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret      []byte
	validity    time.Duration
	now         func() time.Time
	revocations RevocationList
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithRevocationList makes Verify reject tokens whose id has been revoked.
func WithRevocationList(l RevocationList) TokenOption {
	return func(s *TokenService) { s.revocations = l }
}

func NewTokenService(secret string, validity time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret:   []byte(secret),
		validity: validity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validity is the lifetime given to new tokens.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Revocable reports whether Revoke has any server-side effect.
func (s *TokenService) Revocable() bool {
	return s.revocations != nil
}

// Issue signs a token for id, valid from now for Validity().
// It fails with common.ErrorConfig when no secret is configured.
func (s *TokenService) Issue(ctx context.Context, id Identity) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: token signing secret is empty", common.ErrorConfig)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
			ID:        uuid.NewString(),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify returns the claims of a valid token. Malformed input, a bad
// signature, expiry and revocation all yield (nil, false) with no further
// detail.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, bool) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, false
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil || revoked {
			return nil, false
		}
	}

	return claims, true
}

// Revoke records the token's id until its natural expiry. Invalid tokens are
// ignored, and so is everything when no revocation list is configured.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	if s.revocations == nil {
		return nil
	}
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, common.ErrorConfig
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	// the token is valid only strictly before exp
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" || claims.Email == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
