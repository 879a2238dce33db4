package handler

import (
	"errors"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var statusBySentinel = []struct {
	err  error
	code int
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrPaymentNotCompleted, http.StatusPaymentRequired},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrInvalidAmount, http.StatusBadRequest},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrUnknownPurchaseType, http.StatusBadRequest},
	{service.ErrInvalidSignature, http.StatusBadRequest},
	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrStaleWrite, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrSlotTaken, http.StatusConflict},
	{service.ErrAmountMismatch, http.StatusConflict},
}

// ToHTTPError maps service errors onto HTTP statuses. Anything unknown is a
// downstream failure and keeps its message.
func ToHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return echo.NewHTTPError(s.code, err.Error())
		}
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := ToHTTPError(err)
		if he.Code >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Error("request failed")
		}

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(he.Code)
		} else {
			respErr = c.JSON(he.Code, map[string]interface{}{"error": he.Message})
		}
		if respErr != nil {
			log.WithError(respErr).Error("write error response")
		}
	}
}
