package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/payment"
)

// respondError writes err as {error, message[, details]} with the status
// its kind maps to. Unknown errors are logged and reported as internal.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	public := apperrors.Public(err)
	if public.HTTPStatus >= http.StatusInternalServerError {
		log.WithContext(c.Request().Context()).Error("request failed",
			"path", c.Path(),
			"error", err,
		)
	}

	// a rejected payment is reported in the x402 shape so clients can retry
	if errors.Is(err, apperrors.ErrPaymentInvalid) && public.Details != nil {
		return c.JSON(http.StatusPaymentRequired, map[string]interface{}{
			"x402Version": payment.X402Version,
			"error":       public.Code,
			"message":     public.Message,
			"accepts":     public.Details["accepts"],
		})
	}

	return c.JSON(public.HTTPStatus, public)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, apperrors.New(apperrors.ErrValidation, message))
}
