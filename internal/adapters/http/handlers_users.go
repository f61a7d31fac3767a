package http

import (
	"net/http"

	"github.com/shambasecure/auth-service/internal/application"
	"github.com/shambasecure/auth-service/internal/domain"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register", err)
		return
	}

	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "register", err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": "Registration successful! You can now login with your email.",
		"user": map[string]any{
			"uid":      res.UID,
			"email":    res.Email,
			"fullName": res.FullName,
		},
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "profile", domain.ErrAuthentication)
		return
	}

	res, err := h.auth.Profile(r.Context(), claims)
	if err != nil {
		writeMappedError(r.Context(), w, "profile", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"profile": res})
}
