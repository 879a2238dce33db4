package handler

import (
	"io"
	"lounge-portal/internal/dto"
	"lounge-portal/internal/middleware"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

const stripeSignatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	checkoutService service.CheckoutService
	paymentService  service.PaymentService
}

func NewPaymentHandler(checkoutService service.CheckoutService, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		checkoutService: checkoutService,
		paymentService:  paymentService,
	}
}

func (h *PaymentHandler) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.checkoutService.CreateCheckout(ctx, middleware.IdentityFrom(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.paymentService.VerifyPayment(ctx, middleware.IdentityFrom(c), req.SessionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.VerifyPaymentResponse{
		Success:     true,
		Type:        string(result.Type),
		ReferenceID: result.ReferenceID,
	})
}

func (h *PaymentHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.paymentService.HandleWebhook(ctx, body, c.Request().Header.Get(stripeSignatureHeader))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.WebhookResponse{Received: true})
}

func (h *PaymentHandler) ListPaymentMethods(c echo.Context) error {
	ctx := c.Request().Context()

	cards, err := h.paymentService.ListPaymentMethods(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"payment_methods": cards,
	})
}

func (h *PaymentHandler) DeletePaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.DeletePaymentMethodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.paymentService.DeletePaymentMethod(ctx, middleware.IdentityFrom(c), req.PaymentMethodID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{
		"success": true,
	})
}
