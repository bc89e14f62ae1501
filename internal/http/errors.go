package httpapi

import (
	"errors"
	"net/http"

	"iheartcare/internal/service"

	"go.uber.org/zap"
)

// writeError maps the service error taxonomy onto status codes and the envelope.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, Fail(verr.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, Fail("invalid username or password"))
	case errors.Is(err, service.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, TokenExpired("session expired or missing"))
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("not found"))
	case errors.Is(err, service.ErrMonitoringActive):
		writeJSON(w, http.StatusConflict, Fail(service.ErrMonitoringActive.Error()))
	case errors.Is(err, service.ErrConflict):
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
	case errors.Is(err, service.ErrDeviceUnavailable):
		writeJSON(w, http.StatusBadGateway, Fail(service.ErrDeviceUnavailable.Error()))
	case errors.Is(err, service.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, Fail("service temporarily unavailable"))
	default:
		logger.Error("Unhandled request error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}
