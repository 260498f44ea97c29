package handler

import (
	"net/http"

	"commerce-core/internal/middleware"

	"github.com/labstack/echo/v4"
)

// resolveUserID picks the acting user. An authenticated caller always wins;
// a different user_id in the body is refused rather than silently replaced.
func resolveUserID(c echo.Context, fromBody uint) (uint, error) {
	authID, ok := middleware.UserID(c)
	if !ok {
		return fromBody, nil
	}
	if fromBody != 0 && fromBody != authID {
		return 0, echo.NewHTTPError(http.StatusForbidden, "user_id does not match the authenticated user")
	}
	return authID, nil
}
