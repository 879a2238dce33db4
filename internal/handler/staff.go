package handler

import (
	"lounge-portal/internal/dto"
	"lounge-portal/internal/middleware"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type StaffHandler struct {
	staffService service.StaffService
}

func NewStaffHandler(staffService service.StaffService) *StaffHandler {
	return &StaffHandler{
		staffService: staffService,
	}
}

func (h *StaffHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.staffService.ListOrders(ctx, middleware.IdentityFrom(c), c.QueryParam("status"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *StaffHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.staffService.AdvanceOrder(ctx, middleware.IdentityFrom(c), c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
