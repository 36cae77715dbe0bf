package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ride-backend/pkg/middleware"
	"ride-backend/pkg/phone"
	"ride-backend/pkg/response"
)

func (h *AuthHandler) HandleVerifyStart(w http.ResponseWriter, r *http.Request) {
	var req VerifyStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.uc.StartVerify(r.Context(), req.Phone, req.Mode); err != nil {
		writeError(w, err)
		return
	}

	masked := maskPhone(phone.Normalize(req.Phone))
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Verification code sent to %s", masked),
	})
}

func (h *AuthHandler) HandleVerifyCheck(w http.ResponseWriter, r *http.Request) {
	var req VerifyCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.uc.CheckVerify(r.Context(), req.Phone, req.Code, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
	})
}

func (h *AuthHandler) HandleRegisterComplete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, pair, err := h.uc.RegisterComplete(r.Context(), req.Token, req.PIN, req.ConfirmPIN)
	if err != nil {
		writeError(w, err)
		return
	}

	setRefreshCookie(w, h.cfg, pair.Refresh, int(h.cfg.RefreshTTL.Seconds()))
	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Registration complete",
		"accessToken": pair.Access,
		"user":        user.Public(),
	})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, pair, err := h.uc.Login(r.Context(), req.Phone, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}

	setRefreshCookie(w, h.cfg, pair.Refresh, int(h.cfg.RefreshTTL.Seconds()))
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Login successful",
		"accessToken": pair.Access,
		"user":        user.Public(),
	})
}

func (h *AuthHandler) HandleResetPINComplete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.uc.ResetPINComplete(r.Context(), req.Token, req.PIN, req.ConfirmPIN); err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "PIN updated",
	})
}

// HandleRefresh reads the refresh token from the cookie, falling back to the
// body for clients that have not migrated yet, and rotates the pair.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(refreshCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		response.Error(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	_, pair, err := h.uc.Refresh(r.Context(), token)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	setRefreshCookie(w, h.cfg, pair.Refresh, int(h.cfg.RefreshTTL.Seconds()))
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": pair.Access,
	})
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.uc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"user": user.Public(),
	})
}

func (h *AuthHandler) HandleEmailVerifyStart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req EmailVerifyStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.uc.StartEmailVerify(r.Context(), userID, req.Email); err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Verification code sent to your email",
	})
}

func (h *AuthHandler) HandleEmailVerifyCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req EmailVerifyCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.uc.CheckEmailVerify(r.Context(), userID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified",
		"user":    user.Public(),
	})
}
