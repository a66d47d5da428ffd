package matrix

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/httputil"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
)

const listPath = "/matrix"

type Handler struct {
	repo     *Repository
	notifier revalidate.Notifier
}

func NewHandler(repo *Repository, notifier revalidate.Notifier) *Handler {
	if notifier == nil {
		notifier = revalidate.Nop{}
	}
	return &Handler{repo: repo, notifier: notifier}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/tree", h.tree)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context(), r.URL.Query().Get("categoria"))
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context(), r.URL.Query().Get("categoria"))
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BuildTree(out))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.WriteAppError(w, apperr.Wrap(apperr.KindInvalid, err, "invalid request body"))
		return
	}
	c, err := h.repo.Create(r.Context(), in)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	h.notifier.Revalidate(r.Context(), listPath)
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	var in Input
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.WriteAppError(w, apperr.Wrap(apperr.KindInvalid, err, "invalid request body"))
		return
	}
	c, err := h.repo.Update(r.Context(), id, in)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	h.notifier.Revalidate(r.Context(), listPath, fmt.Sprintf("%s/%d", listPath, id))
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	h.notifier.Revalidate(r.Context(), listPath, fmt.Sprintf("%s/%d", listPath, id))
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": id})
}
