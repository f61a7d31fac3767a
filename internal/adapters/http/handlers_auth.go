package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/shambasecure/auth-service/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "auth_guard")
			return
		}

		claims, err := h.auth.ValidateSession(r.Context(), raw)
		if err != nil {
			writeMappedError(r.Context(), w, "auth_guard", err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) checkEmail(w http.ResponseWriter, r *http.Request) {
	var req checkEmailRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "check_email", err)
		return
	}

	res, err := h.auth.CheckEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The frontend branches on registered, so the 404 body
			// carries the flag alongside the error message.
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success":    false,
				"registered": false,
				"error":      err.Error(),
				"code":       "NOT_FOUND",
			})
			return
		}
		writeMappedError(r.Context(), w, "check_email", err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"registered": res.Registered,
		"fullName":   res.FullName,
	})
}

type sendMagicLinkRequest struct {
	Email string `json:"email"`
}

func (h *Handler) sendMagicLink(w http.ResponseWriter, r *http.Request) {
	var req sendMagicLinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "send_magic_link", err)
		return
	}

	res, err := h.auth.SendMagicLink(r.Context(), req.Email, deviceFromRequest(r))
	if err != nil {
		writeMappedError(r.Context(), w, "send_magic_link", err)
		return
	}

	data := map[string]any{
		"message":   res.Message,
		"delivered": res.Delivered,
	}
	if res.RequiresDeviceVerification {
		data["requiresDeviceVerification"] = true
	}
	if res.Link != "" {
		data["link"] = res.Link
	}
	writeSuccess(w, http.StatusOK, data)
}

// verifyTokenRequest accepts the credential under either key; older frontend
// builds send idToken, newer ones send token.
type verifyTokenRequest struct {
	Token   string `json:"token"`
	IDToken string `json:"idToken"`
}

func (r verifyTokenRequest) credential() string {
	if r.Token != "" {
		return r.Token
	}
	return r.IDToken
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_token", err)
		return
	}

	res, err := h.auth.VerifyToken(r.Context(), req.credential(), deviceFromRequest(r))
	if err != nil {
		writeMappedError(r.Context(), w, "verify_token", err)
		return
	}

	data := map[string]any{
		"uid":           res.UID,
		"email":         res.Email,
		"emailVerified": res.EmailVerified,
		"fullName":      res.FullName,
		"role":          res.Role,
		"sessionToken":  res.SessionToken,
		"expiresIn":     res.ExpiresIn,
		"metadata":      res.Metadata,
	}
	if res.Warning != "" {
		data["warning"] = res.Warning
	}
	writeSuccess(w, http.StatusOK, data)
}

type verifyDeviceRequest struct {
	Token string `json:"token"`
}

func (h *Handler) verifyDevice(w http.ResponseWriter, r *http.Request) {
	var req verifyDeviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_device", err)
		return
	}

	res, err := h.auth.VerifyDevice(r.Context(), req.Token)
	if err != nil {
		writeMappedError(r.Context(), w, "verify_device", err)
		return
	}

	data := map[string]any{
		"message":   res.Message,
		"delivered": res.Delivered,
	}
	if res.Link != "" {
		data["link"] = res.Link
	}
	writeSuccess(w, http.StatusOK, data)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "me", domain.ErrAuthentication)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"uid":           claims.UID,
			"email":         claims.Email,
			"emailVerified": claims.EmailVerified,
		},
	})
}

func (h *Handler) listTrustedDevices(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "list_trusted_devices", domain.ErrAuthentication)
		return
	}

	devices, err := h.auth.ListTrustedDevices(r.Context(), claims)
	if err != nil {
		writeMappedError(r.Context(), w, "list_trusted_devices", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"devices": devices})
}

func (h *Handler) removeTrustedDevice(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "remove_trusted_device", domain.ErrAuthentication)
		return
	}

	fingerprint := routeParam(r, "fingerprint")
	if err := h.auth.RemoveTrustedDevice(r.Context(), claims, fingerprint); err != nil {
		writeMappedError(r.Context(), w, "remove_trusted_device", err)
		return
	}
	writeMessage(w, http.StatusOK, "device removed")
}

func (h *Handler) loginHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "login_history", domain.ErrAuthentication)
		return
	}

	limit := parseIntDefault(r.URL.Query().Get("limit"), 0)
	history, err := h.auth.LoginHistory(r.Context(), claims, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "login_history", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"history": history})
}
