package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/vines-backend/internal/model"
)

// DefaultTokenTTL is the lifetime of tokens minted by Generate.
const DefaultTokenTTL = time.Hour

// TokenService creates and verifies HS256 JWTs.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","email":...,"name":...,"picture":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
//
// The claim names are the OpenID Connect ones, so tokens minted here look
// like the IdP's and map straight onto model.Principal.
type TokenService struct {
	secret []byte
	issuer string
}

var _ Verifier = (*TokenService)(nil)

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; in production use 32 random bytes
// (JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if issuer == "" {
		return nil, errors.New("auth: JWT issuer is required")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

type claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Generate signs a token for p that expires after DefaultTokenTTL.
func (s *TokenService) Generate(p model.Principal) (string, error) {
	return s.GenerateWithDuration(p, DefaultTokenTTL)
}

// GenerateWithDuration signs a token for p with a custom lifetime. A negative
// d produces an already expired token, which tests use.
func (s *TokenService) GenerateWithDuration(p model.Principal, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    s.issuer,
		},
		Email:   p.Email,
		Name:    p.DisplayName,
		Picture: p.IconURL,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks tokenStr.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - the signature matches (the token was not tampered with)
//   - exp is present and in the future
//   - iss matches the configured issuer
//   - alg is HS256, so a token claiming "none" or RS256 is rejected
func (s *TokenService) Verify(_ context.Context, tokenStr string) (model.Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Principal{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return model.Principal{}, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	if c.Subject == "" {
		return model.Principal{}, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return model.Principal{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		IconURL:     c.Picture,
	}, nil
}
