package order

import "qrorder-be/internal/apperror"

var (
	ErrOrderNotFound = apperror.New(apperror.KindNotFound, "ORDER_NOT_FOUND", "order not found")

	ErrIllegalTransition = apperror.New(apperror.KindValidation, "ILLEGAL_TRANSITION", "illegal order status transition")
	ErrUnknownStatus     = apperror.New(apperror.KindValidation, "UNKNOWN_STATUS", "unknown order status")

	// ErrDuplicateOrderNumber is retryable: generate a new number and insert again.
	ErrDuplicateOrderNumber = apperror.New(apperror.KindConflict, "DUPLICATE_ORDER_NUMBER", "order number already exists")
	ErrStatusChanged        = apperror.New(apperror.KindConflict, "ORDER_STATUS_CHANGED", "order status changed concurrently")
)

// ErrAlreadyMaterialized is returned when the payment is already bound to an order.
type ErrAlreadyMaterialized struct {
	OrderID int64
}

func (e *ErrAlreadyMaterialized) Error() string {
	return "payment already materialized into an order"
}

const pgUniqueViolation = "23505"
