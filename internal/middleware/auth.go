package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"commerce-core/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const contextUserID = "user_id"

// Auth validates an HS256 bearer token and stores its subject as the
// caller's user id. Paths in cfg.PublicPaths skip the check, and an empty
// secret disables it entirely (local development).
func Auth(cfg *config.Auth) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(secret) == 0 || slices.Contains(cfg.PublicPaths, c.Request().URL.Path) {
				return next(c)
			}

			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &jwt.RegisteredClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			id, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil || id == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			c.Set(contextUserID, uint(id))
			return next(c)
		}
	}
}

// UserID returns the authenticated user, if any.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(contextUserID).(uint)
	return id, ok && id != 0
}
