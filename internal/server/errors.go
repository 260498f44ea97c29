package server

import (
	"errors"
	"log/slog"
	"net/http"

	"commerce-core/internal/apperror"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	ProductID uint   `json:"product_id,omitempty"`
	Requested *int64 `json:"requested,omitempty"`
	Available *int64 `json:"available,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Required  *int64 `json:"required,omitempty"`
	Current   *int64 `json:"current,omitempty"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// errorHandler maps the apperror taxonomy onto status codes. Anything it
// does not recognise is logged and reported as a bare 500.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toResponse(err)
		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"error", err,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			log.Error("write error response", "error", writeErr)
		}
	}
}

func toResponse(err error) (int, any) {
	var (
		validationErr *apperror.ValidationError
		notFoundErr   *apperror.NotFoundError
		stockErr      *apperror.InsufficientStockError
		balanceErr    *apperror.InsufficientBalanceError
		gatewayErr    *apperror.GatewayError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.Is(err, apperror.ErrAlreadyProcessed):
		return http.StatusOK, map[string]string{"outcome": "already_processed"}

	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorResponse{Error: validationErr.Error(), Field: validationErr.Field}

	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, errorResponse{Error: notFoundErr.Error()}

	case errors.As(err, &stockErr):
		return http.StatusBadRequest, errorResponse{
			Error:     stockErr.Error(),
			ProductID: stockErr.ProductID,
			Requested: &stockErr.Requested,
			Available: &stockErr.Available,
		}

	case errors.As(err, &balanceErr):
		return http.StatusBadRequest, errorResponse{
			Error:    balanceErr.Error(),
			Currency: balanceErr.Currency,
			Required: &balanceErr.Required,
			Current:  &balanceErr.Current,
		}

	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway, errorResponse{Error: gatewayErr.Error(), Retryable: &gatewayErr.Retryable}

	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{Error: msg}

	default:
		return http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)}
	}
}
