package handler

import (
	"net/http"

	"commerce-core/internal/dto"
	"commerce-core/internal/service"

	"github.com/labstack/echo/v4"
)

type PpobHandler struct {
	ppobService service.PpobService
}

func NewPpobHandler(ppobService service.PpobService) *PpobHandler {
	return &PpobHandler{
		ppobService: ppobService,
	}
}

func (h *PpobHandler) PricingPreview(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PpobPricingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return err
	}
	req.UserID = userID

	quote, err := h.ppobService.Preview(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, quote)
}

func (h *PpobHandler) Purchase(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PpobPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return err
	}
	req.UserID = userID

	result, err := h.ppobService.Purchase(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}
