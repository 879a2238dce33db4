package handler

import (
	"lounge-portal/internal/middleware"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
	menuService service.MenuService
}

func NewUserHandler(userService service.UserService, menuService service.MenuService) *UserHandler {
	return &UserHandler{
		userService: userService,
		menuService: menuService,
	}
}

func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	me, err := h.userService.Me(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, me)
}

func (h *UserHandler) ListMenu(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.menuService.ListMenu(ctx, c.QueryParam("category"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

func (h *UserHandler) GetMenuItem(c echo.Context) error {
	ctx := c.Request().Context()

	item, err := h.menuService.GetItem(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, item)
}
