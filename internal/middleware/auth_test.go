package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"commerce-core/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runAuth(t *testing.T, cfg *config.Auth, path, bearer string) (*httptest.ResponseRecorder, uint, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen uint
	err := Auth(cfg)(func(c echo.Context) error {
		seen, _ = UserID(c)
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, seen, err
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return httpErr.Code
}

func TestAuth_ValidTokenSetsUser(t *testing.T) {
	cfg := &config.Auth{JWTSecret: testSecret}

	rec, userID, err := runAuth(t, cfg, "/api/checkout", signToken(t, testSecret, "42", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint(42), userID)
}

func TestAuth_Rejections(t *testing.T) {
	cfg := &config.Auth{JWTSecret: testSecret}

	tests := []struct {
		name   string
		bearer string
	}{
		{"missing token", ""},
		{"wrong secret", signToken(t, "other", "42", time.Hour)},
		{"expired", signToken(t, testSecret, "42", -time.Minute)},
		{"non numeric subject", signToken(t, testSecret, "budi", time.Hour)},
		{"garbage", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, userID, err := runAuth(t, cfg, "/api/checkout", tt.bearer)
			assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
			assert.Zero(t, userID)
		})
	}
}

func TestAuth_PublicPathAndDisabledSecret(t *testing.T) {
	cfg := &config.Auth{JWTSecret: testSecret, PublicPaths: []string{"/api/payments/callback"}}

	rec, _, err := runAuth(t, cfg, "/api/payments/callback", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _, err = runAuth(t, &config.Auth{}, "/api/checkout", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
