package httpserver

import (
	"errors"
	"net/http"

	"shop-console/internal/adjustment"
	"shop-console/internal/cart"
	"shop-console/internal/domain"
	"shop-console/internal/reconcile"
	"shop-console/internal/service/session"
	"shop-console/internal/variant"
)

// statusFor maps engine and service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStockLimitExceeded),
		errors.Is(err, variant.ErrNothingPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrVariantRequired),
		errors.Is(err, variant.ErrUnknownVariant),
		errors.Is(err, variant.ErrVariantUnavailable),
		errors.Is(err, reconcile.ErrInvalidOrderLine):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrVariantMismatch),
		errors.Is(err, adjustment.ErrInvalidCharge),
		errors.Is(err, session.ErrInvalidAdjustment),
		errors.Is(err, session.ErrEmptyCart):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
