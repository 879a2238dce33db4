package handler

import (
	"lounge-portal/internal/dto"
	"lounge-portal/internal/middleware"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

func (h *PurchaseHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.purchaseService.CreateOrder(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *PurchaseHandler) CreateRoomBooking(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateRoomBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	booking, err := h.purchaseService.CreateRoomBooking(ctx, middleware.IdentityFrom(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, booking)
}

func (h *PurchaseHandler) CreateEventRegistration(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateEventRegistrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	registration, err := h.purchaseService.CreateEventRegistration(ctx, middleware.IdentityFrom(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registration)
}

func (h *PurchaseHandler) CreatePartyRequest(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePartyRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	request, err := h.purchaseService.CreatePartyRequest(ctx, middleware.IdentityFrom(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, request)
}

func (h *PurchaseHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	purchases, err := h.purchaseService.ListMine(ctx, middleware.IdentityFrom(c), c.Param("type"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, purchases)
}
