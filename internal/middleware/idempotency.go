package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Idempotency rejects a second POST carrying an Idempotency-Key that is
// already in flight or succeeded within ttl. Failed requests release the
// key so the client can retry them. Requests without the header pass.
func Idempotency(store IdempotencyStore, ttl time.Duration, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			key := req.Header.Get(HeaderIdempotencyKey)
			if req.Method != http.MethodPost || key == "" {
				return next(c)
			}

			// scope keys per route so one key cannot block another endpoint
			scoped := req.URL.Path + ":" + key
			if uid, ok := UserID(c); ok {
				scoped = req.URL.Path + ":" + strconv.FormatUint(uint64(uid), 10) + ":" + key
			}

			ctx := req.Context()
			claimed, err := store.Claim(ctx, scoped, ttl)
			if err != nil {
				// fail open, the database transaction is still the source of truth
				log.WarnContext(ctx, "idempotency store unavailable", "error", err)
				return next(c)
			}
			if !claimed {
				return echo.NewHTTPError(http.StatusConflict, "request with this Idempotency-Key was already submitted")
			}

			if err := next(c); err != nil {
				if relErr := store.Release(context.WithoutCancel(ctx), scoped); relErr != nil {
					log.WarnContext(ctx, "release idempotency key", "error", relErr)
				}
				return err
			}
			return nil
		}
	}
}
