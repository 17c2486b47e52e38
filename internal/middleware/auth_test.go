package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newAuthApp(t *testing.T, auth *Authenticator) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/private", auth.Required(), func(c *fiber.Ctx) error {
		userID, _ := UserID(c)
		return c.JSON(fiber.Map{"userID": userID})
	})
	app.Get("/public", auth.Optional(), func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		return c.JSON(fiber.Map{"userID": userID, "authenticated": ok})
	})
	return app
}

func TestAuthenticator_Required(t *testing.T) {
	app := newAuthApp(t, NewAuthenticator(testSecret, nil))

	valid, _, err := IssueToken(testSecret, 123, time.Now())
	require.NoError(t, err)
	expired, _, err := IssueToken(testSecret, 123, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	foreign, _, err := IssueToken("another-secret-another-secret-another-secret", 123, time.Now())
	require.NoError(t, err)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.Itoa(123),
		"iss": "someone-else",
		"aud": TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongIssuerStr, err := wrongIssuer.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized},
		{"Wrong Secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"Wrong Issuer", "Bearer " + wrongIssuerStr, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(123), body["userID"])
			}
		})
	}
}

func TestAuthenticator_OptionalIgnoresBadToken(t *testing.T) {
	app := newAuthApp(t, NewAuthenticator(testSecret, nil))

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["authenticated"])
}

func TestAuthenticator_RevokedTokenRejected(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	auth := NewAuthenticator(testSecret, rdb)
	app := newAuthApp(t, auth)

	token, claims, err := IssueToken(testSecret, 9, time.Now())
	require.NoError(t, err)
	require.NoError(t, auth.Revoke(context.Background(), claims))
	assert.True(t, mr.Exists("blacklist:"+claims.JTI))

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestParseToken_RoundTrip(t *testing.T) {
	token, issued, err := IssueToken(testSecret, 42, time.Now())
	require.NoError(t, err)

	parsed, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), parsed.UserID)
	assert.Equal(t, issued.JTI, parsed.JTI)
	assert.WithinDuration(t, issued.ExpiresAt, parsed.ExpiresAt, time.Second)
}
