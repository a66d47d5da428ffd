package settings

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/httputil"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Put("/", h.update)
	r.Delete("/{key}", h.remove)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.All(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	settingsMap := make(map[string]string, len(all))
	for _, s := range all {
		settingsMap[s.Key] = s.Value
	}
	httputil.WriteJSON(w, http.StatusOK, settingsMap)
}

// update stores every pair of the body. All pairs are validated before the first write.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, string(apperr.KindInvalid), "invalid request body")
		return
	}
	keys := make([]string, 0, len(req))
	for key, value := range req {
		if err := Validate(key, value); err != nil {
			httputil.WriteAppError(w, err)
			return
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := h.repo.Set(r.Context(), key, req[key]); err != nil {
			httputil.WriteAppError(w, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"updated": keys, "applies": "next restart"})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "key")})
}
