package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"

	"commerce-core/internal/model"
	"commerce-core/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	settlementService service.SettlementService
}

func NewPaymentHandler(settlementService service.SettlementService) *PaymentHandler {
	return &PaymentHandler{
		settlementService: settlementService,
	}
}

// Callback receives the gateway's payment notification. The gateway posts
// form data, but JSON is accepted too. The body is kept verbatim for the
// audit trail before it is bound.
func (h *PaymentHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	c.Request().Body = io.NopCloser(bytes.NewReader(body))

	var cb model.GatewayCallback
	if err := c.Bind(&cb); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid callback body")
	}

	raw := &model.RawCallback{
		Body:   body,
		Fields: callbackFields(c.Request().Header.Get(echo.HeaderContentType), body),
	}

	result, err := h.settlementService.HandleCallback(ctx, &cb, raw)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func callbackFields(contentType string, body []byte) map[string]any {
	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		if doc := model.DecodeDocument(body); doc != nil {
			return doc
		}
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil
	}
	doc := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			doc[k] = v[0]
		} else {
			doc[k] = v
		}
	}
	return doc
}
