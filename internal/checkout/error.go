package checkout

import "qrorder-be/internal/apperror"

var (
	ErrInvalidCart        = apperror.New(apperror.KindValidation, "INVALID_CART", "invalid cart")
	ErrAmountMismatch     = apperror.New(apperror.KindValidation, "AMOUNT_MISMATCH", "payment amount does not match")
	ErrCartTotalMismatch  = apperror.New(apperror.KindValidation, "CART_TOTAL_MISMATCH", "cart total does not match payment amount")
	ErrMenuUnavailable    = apperror.New(apperror.KindValidation, "MENU_UNAVAILABLE", "menu item is not available")
	ErrPaymentKeyMismatch = apperror.New(apperror.KindValidation, "PAYMENT_KEY_MISMATCH", "payment key does not match this payment")

	ErrPaymentNotDone = apperror.New(apperror.KindConflict, "PAYMENT_NOT_COMPLETED", "payment is not completed")
)
