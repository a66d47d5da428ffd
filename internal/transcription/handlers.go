package transcription

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/httputil"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
)

// DefaultMaxUpload bounds the size of an uploaded transcription.
const DefaultMaxUpload = 10 << 20

type Handler struct {
	importer  *Importer
	repo      *Repository
	notifier  revalidate.Notifier
	maxUpload int64
	logger    *zap.Logger
}

func NewHandler(importer *Importer, repo *Repository, notifier revalidate.Notifier, maxUpload int64, logger *zap.Logger) *Handler {
	if notifier == nil {
		notifier = revalidate.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{importer: importer, repo: repo, notifier: notifier, maxUpload: maxUpload, logger: logger}
}

// Routes registers the transcription endpoints under an interviews router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/{id}/transcription", h.importCSV)
	r.Get("/{id}/segments", h.list)
	r.Get("/{id}/segments.csv", h.export)
	r.Delete("/{id}/segments", h.clear)
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	text, err := h.readCSV(r)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	summary, err := h.importer.Import(r.Context(), id, text)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, summary)
}

// readCSV accepts a multipart upload (field "file"), a JSON body {"csv": "..."} or the raw
// CSV text as the body.
func (h *Handler) readCSV(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			return "", bodyError(err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return "", apperr.Invalid("multipart field \"file\" is required")
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return "", bodyError(err)
		}
		return string(b), nil
	case "application/json":
		var body struct {
			CSV string `json:"csv"`
		}
		if err := httputil.ReadJSON(r, &body); err != nil {
			return "", bodyError(err)
		}
		return body.CSV, nil
	}
	defer r.Body.Close()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", bodyError(err)
	}
	return string(b), nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Invalid("upload exceeds %d bytes", tooLarge.Limit)
	}
	return apperr.Wrap(apperr.KindInvalid, err, "invalid request body")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.repo.RequireInterview(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	segs, err := h.repo.ListByInterview(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, segs)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.repo.RequireInterview(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	segs, err := h.repo.ListByInterview(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="interview-%d.csv"`, id))
	// The 200 goes out with the first write, so a failure here can only be logged.
	if err := WriteCSV(w, segs); err != nil {
		h.logger.Warn("csv export interrupted", zap.Int64("interview", id), zap.Error(err))
	}
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.repo.RequireInterview(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	n, err := h.repo.DeleteByInterview(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	h.notifier.Revalidate(r.Context(), InterviewPaths(id)...)
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
