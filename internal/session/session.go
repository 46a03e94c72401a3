// Package session issues and verifies bearer tokens and keeps track of
// tokens revoked by logging out.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nikhil/begreen/internal/models"
)

const revokedKeyPrefix = "session:revoked:"

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by every token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() models.Principal {
	return models.Principal{UserID: c.UserID, Email: c.Email, Name: c.Name}
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, client *redis.Client) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		redis:  client,
		now:    time.Now,
	}
}

// Issue signs a new token for user.
func (m *Manager) Issue(user models.User) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, claims, nil
}

// Parse verifies signature, expiry and revocation of a token.
func (m *Manager) Parse(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := m.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrInvalidToken)
	}
	return claims, nil
}

// Revoke marks the token as logged out until it would have expired anyway.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return nil
	}

	if err := m.redis.Set(ctx, revokedKeyPrefix+claims.ID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (m *Manager) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := m.redis.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
