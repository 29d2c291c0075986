package store

import "qrorder-be/internal/apperror"

var (
	ErrStoreNotFound = apperror.New(apperror.KindNotFound, "STORE_NOT_FOUND", "store not found")
	ErrStoreClosed   = apperror.New(apperror.KindValidation, "STORE_CLOSED", "store is not accepting orders")
	ErrInvalidSeat   = apperror.New(apperror.KindValidation, "INVALID_SEAT", "seat does not belong to store")
)
