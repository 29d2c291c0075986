package api

import (
	"net/http"

	"qrorder-be/internal/apperror"
	"qrorder-be/internal/logger"
	"qrorder-be/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidBody  = apperror.New(apperror.KindValidation, "INVALID_BODY", "invalid request body")
	ErrInvalidParam = apperror.New(apperror.KindValidation, "INVALID_PARAMETER", "invalid request parameter")
	ErrForbidden    = apperror.New(apperror.KindForbidden, "FORBIDDEN", "access to this store is not allowed")
)

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindGatewayTransient:
		return http.StatusServiceUnavailable
	case apperror.KindGatewayRejected:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeError is the only place errors become HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromCtx(r.Context())

	appErr, ok := apperror.As(err)
	if !ok {
		log.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
		utils.WriteJSONError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error")
		return
	}

	status := statusOf(appErr.Kind)

	message := appErr.Message
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", appErr.Code), zap.Error(err))
		if appErr.Kind == apperror.KindInternal {
			message = "internal server error"
		}
	}
	utils.WriteJSONError(w, r, status, appErr.Code, message)
}
