package handler

import (
	"net/http"

	"commerce-core/internal/dto"
	"commerce-core/internal/service"

	"github.com/labstack/echo/v4"
)

type WalletHandler struct {
	topupService service.TopupService
}

func NewWalletHandler(topupService service.TopupService) *WalletHandler {
	return &WalletHandler{
		topupService: topupService,
	}
}

func (h *WalletHandler) Topup(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.TopupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return err
	}
	req.UserID = userID

	result, err := h.topupService.Topup(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}
