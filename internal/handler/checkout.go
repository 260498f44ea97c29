package handler

import (
	"net/http"
	"strconv"

	"commerce-core/internal/dto"
	"commerce-core/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	cartService     service.CartService
}

func NewCheckoutHandler(checkoutService service.CheckoutService, cartService service.CartService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		cartService:     cartService,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return err
	}
	req.UserID = userID

	result, err := h.checkoutService.Checkout(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *CheckoutHandler) AddCartItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return err
	}
	req.UserID = userID

	cart, err := h.cartService.AddItem(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CheckoutHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var fromQuery uint
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		fromQuery = uint(id)
	}

	userID, err := resolveUserID(c, fromQuery)
	if err != nil {
		return err
	}

	order, err := h.checkoutService.GetOrder(ctx, userID, c.Param("number"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
