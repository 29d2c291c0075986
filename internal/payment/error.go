package payment

import (
	"fmt"

	"qrorder-be/internal/apperror"
)

var (
	ErrPaymentNotFound = apperror.New(apperror.KindNotFound, "PAYMENT_NOT_FOUND", "payment not found")

	// ErrDuplicateMerchantOrderID is retryable with a freshly generated id.
	ErrDuplicateMerchantOrderID = apperror.New(apperror.KindConflict, "DUPLICATE_MERCHANT_ORDER_ID", "merchant order id already exists")
	ErrDuplicatePaymentKey      = apperror.New(apperror.KindConflict, "DUPLICATE_PAYMENT_KEY", "payment key already bound to another payment")
	ErrPaymentAlreadyProcessed  = apperror.New(apperror.KindConflict, "PAYMENT_ALREADY_PROCESSED", "payment already processed")
	ErrPaymentNotCancelable     = apperror.New(apperror.KindConflict, "PAYMENT_NOT_CANCELABLE", "payment cannot be cancelled in its current state")
	ErrAlreadyCanceled          = apperror.New(apperror.KindConflict, "ALREADY_CANCELED", "payment already cancelled")

	ErrMalformedGatewayResponse = apperror.New(apperror.KindInternal, "GATEWAY_RESPONSE_INVALID", "malformed payment gateway response")
	ErrGatewayUnavailable       = apperror.New(apperror.KindGatewayTransient, "GATEWAY_UNAVAILABLE", "payment gateway unavailable, try again later")
	ErrGatewayRejected          = apperror.New(apperror.KindGatewayRejected, "GATEWAY_REJECTED", "payment rejected by gateway")
)

// Provider error codes the workflow reacts to.
const (
	CodeAlreadyProcessed = "ALREADY_PROCESSED_PAYMENT"
	CodeNetworkError     = "NETWORK_ERROR"
	CodeProviderError    = "PROVIDER_ERROR"
)

// GatewayError is a single failed exchange with the provider.
type GatewayError struct {
	HTTPStatus int
	Code       string
	Message    string
	Transient  bool
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("gateway %s (http %d): %s", e.Code, e.HTTPStatus, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

const pgUniqueViolation = "23505"
