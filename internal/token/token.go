// Package token mints short-lived voice-session tokens after a successful
// verification.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "voxgate/pkg/domain-errors"
)

// Claims are the JWT claims carried by a voice-session token.
type Claims struct {
	// Amr records the authentication method, always "voiceprint".
	Amr string `json:"amr"`
	// Score is the cosine similarity that cleared the match threshold.
	Score float64 `json:"score"`
	jwt.RegisteredClaims
}

// Service signs and validates voice-session tokens with a shared HMAC key.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// New creates a token service.
func New(signingKey string, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Mint issues a token for an identity whose voice sample matched.
func (s *Service) Mint(identity string, score float64) (string, error) {
	now := time.Now()
	claims := Claims{
		Amr:   "voiceprint",
		Score: score,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   identity,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign voice-session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid voice-session token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid voice-session token")
	}
	return claims, nil
}
