// Package middleware provides logging, authentication, rate limiting, tracing
// and metrics middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "inkwell-api"
	TokenAudience = "inkwell-client"
	TokenTTL      = 24 * time.Hour

	revokedKeyPrefix = "blacklist:"
)

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs a new HS256 access token for userID.
func IssueToken(secret string, userID uint, now time.Time) (string, *TokenClaims, error) {
	jti := uuid.NewString()
	exp := now.Add(TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        jti,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, &TokenClaims{UserID: userID, JTI: jti, ExpiresAt: exp}, nil
}

// ParseToken verifies signature, issuer, audience and expiry.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid subject claim")
	}

	out := &TokenClaims{UserID: uint(userID), JTI: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Authenticator validates access tokens and tracks revoked ones in Redis.
type Authenticator struct {
	secret string
	redis  *redis.Client
}

// NewAuthenticator returns an Authenticator. rdb may be nil, in which case
// revocation is not enforced.
func NewAuthenticator(secret string, rdb *redis.Client) *Authenticator {
	return &Authenticator{secret: secret, redis: rdb}
}

// Authenticate resolves the caller from the request's bearer token.
func (a *Authenticator) Authenticate(c *fiber.Ctx) (*TokenClaims, error) {
	tokenString := BearerToken(c)
	if tokenString == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	claims, err := ParseToken(a.secret, tokenString)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	if claims.JTI != "" && a.redis != nil {
		n, err := a.redis.Exists(c.UserContext(), revokedKeyPrefix+claims.JTI).Result()
		if err == nil && n > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

// Required rejects requests without a valid token with 401.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := a.Authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		a.bind(c, claims)
		return c.Next()
	}
}

// Optional binds the caller when a valid token is present and continues either way.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if BearerToken(c) != "" {
			if claims, err := a.Authenticate(c); err == nil {
				a.bind(c, claims)
			}
		}
		return c.Next()
	}
}

func (a *Authenticator) bind(c *fiber.Ctx, claims *TokenClaims) {
	c.Locals("userID", claims.UserID)
	c.Locals("tokenClaims", claims)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
}

// Revoke blacklists the token's jti until it would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, claims *TokenClaims) error {
	if a.redis == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return a.redis.Set(ctx, revokedKeyPrefix+claims.JTI, "1", ttl).Err()
}

// UserID returns the authenticated caller bound by Required or Optional.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}

// Claims returns the verified token claims bound to the request.
func Claims(c *fiber.Ctx) (*TokenClaims, bool) {
	claims, ok := c.Locals("tokenClaims").(*TokenClaims)
	return claims, ok
}
