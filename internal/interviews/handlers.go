package interviews

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/cache"
	"github.com/JustinTDCT/OralVault/internal/httputil"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
)

const listPath = "/interviews"

type Handler struct {
	repo     *Repository
	notifier revalidate.Notifier
	store    cache.Store
	ttl      time.Duration
}

// NewHandler serves interviews. A nil store disables caching of the counted listing.
func NewHandler(repo *Repository, notifier revalidate.Notifier, store cache.Store, ttl time.Duration) *Handler {
	if notifier == nil {
		notifier = revalidate.Nop{}
	}
	return &Handler{repo: repo, notifier: notifier, store: store, ttl: ttl}
}

// Routes registers the interview endpoints on r, which other handlers may share.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var f ListFilter
	var err error
	if f.InstitutionID, err = httputil.QueryID(r, "institucion"); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if f.IntervieweeID, err = httputil.QueryID(r, "entrevistado"); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	withCounts, _ := strconv.ParseBool(r.URL.Query().Get("with_counts"))
	if !withCounts {
		out, err := h.repo.List(r.Context(), f)
		if err != nil {
			httputil.WriteAppError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, out)
		return
	}

	out, err := h.listWithCounts(r.Context(), f)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) listWithCounts(ctx context.Context, f ListFilter) ([]WithCount, error) {
	load := func(ctx context.Context) ([]WithCount, error) {
		return h.repo.ListWithSegmentCounts(ctx, f)
	}
	if h.store == nil {
		return load(ctx)
	}
	return cache.Fetch(ctx, h.store, cache.PathKey(listPath, countsVariant(f)), h.ttl, load)
}

func countsVariant(f ListFilter) string {
	v := "with_counts"
	if f.InstitutionID != nil {
		v += fmt.Sprintf("&institucion=%d", *f.InstitutionID)
	}
	if f.IntervieweeID != nil {
		v += fmt.Sprintf("&entrevistado=%d", *f.IntervieweeID)
	}
	return v
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	iv, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, iv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httputil.ReadJSON(r, &in); err != nil {
		httputil.WriteAppError(w, apperr.Wrap(apperr.KindInvalid, err, "invalid request body"))
		return
	}
	iv, err := h.repo.Create(r.Context(), in)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	h.notifier.Revalidate(r.Context(), listPath)
	httputil.WriteJSON(w, http.StatusCreated, iv)
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
	iv, err := h.repo.Update(r.Context(), id, in)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	h.notifier.Revalidate(r.Context(), listPath, fmt.Sprintf("%s/%d", listPath, id))
	httputil.WriteJSON(w, http.StatusOK, iv)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	cascade, _ := strconv.ParseBool(r.URL.Query().Get("cascade"))
	segments, err := h.repo.Delete(r.Context(), id, cascade)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	h.notifier.Revalidate(r.Context(), listPath, fmt.Sprintf("%s/%d", listPath, id))
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": id, "segments_deleted": segments})
}
