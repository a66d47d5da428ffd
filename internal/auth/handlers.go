package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/httputil"
)

// Handler exchanges the administrator credentials for a bearer token.
type Handler struct {
	issuer       *Issuer
	user         string
	passwordHash string
}

func NewHandler(issuer *Issuer, user, passwordHash string) *Handler {
	return &Handler{issuer: issuer, user: user, passwordHash: passwordHash}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/token", h.token)
	return r
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil || h.passwordHash == "" {
		httputil.WriteAppError(w, apperr.New(apperr.KindUnavailable, "token login is not configured"))
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, string(apperr.KindInvalid), "invalid request body")
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.user)) == 1
	if !CheckPassword(h.passwordHash, req.Password) || !userOK {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", ErrInvalidCredentials.Error())
		return
	}
	token, exp, err := h.issuer.Sign(req.Username, 0)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp})
}
