package handler

import (
	"errors"
	"log"
	"net/http"

	"ride-backend/internal/config"
	"ride-backend/pkg/response"
	"ride-backend/pkg/xerrors"
)

// writeError maps usecase sentinels onto the wire taxonomy. Anything
// unrecognized logs the real cause and returns a generic 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrInvalidPhone),
		errors.Is(err, xerrors.ErrInvalidPIN),
		errors.Is(err, xerrors.ErrPINMismatch):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrInvalidCredentials),
		errors.Is(err, xerrors.ErrInvalidOTP),
		errors.Is(err, xerrors.ErrInvalidToken),
		errors.Is(err, xerrors.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, xerrors.ErrForbidden):
		response.Error(w, http.StatusForbidden, "you do not own this resource")
	case errors.Is(err, xerrors.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, "account not found")
	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, xerrors.ErrPhoneAlreadyInUse),
		errors.Is(err, xerrors.ErrEmailAlreadyInUse):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, xerrors.ErrTooManyOTPRequests),
		errors.Is(err, xerrors.ErrOTPCooldown):
		response.Error(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, xerrors.ErrUpstream):
		log.Printf("[HTTP] Upstream failure: %v", err)
		response.Error(w, http.StatusBadGateway, "failed to deliver message; try again shortly")
	default:
		log.Printf("[HTTP] Internal error: %v", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

const refreshCookieName = "refreshToken"

// setRefreshCookie scopes the refresh token to the refresh endpoint only.
func setRefreshCookie(w http.ResponseWriter, cfg *config.Config, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth/refresh",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.IsProduction(),
		MaxAge:   maxAge,
	})
}

// maskPhone masks phone numbers like +2547****89
func maskPhone(phone string) string {
	if len(phone) < 6 {
		return "****"
	}
	return phone[:5] + "****" + phone[len(phone)-2:]
}
