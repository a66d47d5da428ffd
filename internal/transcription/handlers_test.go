package transcription

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/httputil"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
)

type fixture struct {
	gw     *gateway.Memory
	rec    *revalidate.Recorder
	router http.Handler
	id     int64
}

func newFixture(t *testing.T, maxUpload int64) *fixture {
	gw := gateway.NewMemory()
	rec := &revalidate.Recorder{}
	h := NewHandler(NewImporter(gw, rec, nil), NewRepository(gw), rec, maxUpload, nil)
	return &fixture{gw: gw, rec: rec, router: h.Router(), id: seedInterview(t, gw)}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) httputil.Response {
	t.Helper()
	resp := httputil.Response{Data: data}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandler_ImportBodies(t *testing.T) {
	csvText := buildCSV(3)
	jsonBody, _ := json.Marshal(map[string]string{"csv": csvText})

	var mp bytes.Buffer
	mw := multipart.NewWriter(&mp)
	fw, err := mw.CreateFormFile("file", "entrevista.csv")
	require.NoError(t, err)
	fw.Write([]byte(csvText))
	require.NoError(t, mw.Close())

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"raw", "text/csv", []byte(csvText)},
		{"no content type", "", []byte(csvText)},
		{"json", "application/json", jsonBody},
		{"multipart", mw.FormDataContentType(), mp.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/%d/transcription", f.id), bytes.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := f.do(req)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			var summary ImportSummary
			resp := decodeResponse(t, rec, &summary)
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, 3, summary.Count)
			assert.Equal(t, f.id, summary.InterviewID)
		})
	}
}

func TestHandler_ImportErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"header only", "/1/transcription", header, http.StatusBadRequest, "empty_input"},
		{"malformed", "/1/transcription", header + "x,,I,a,a,1\n", http.StatusBadRequest, "malformed_row"},
		{"bad header", "/1/transcription", "a,b\n1,2\n", http.StatusBadRequest, "parse_error"},
		{"unknown interview", "/77/transcription", buildCSV(1), http.StatusNotFound, "not_found"},
		{"bad id", "/abc/transcription", buildCSV(1), http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			rec := f.do(httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec, nil)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestHandler_ImportTooLarge(t *testing.T) {
	f := newFixture(t, 64)
	rec := f.do(httptest.NewRequest(http.MethodPost, "/1/transcription", strings.NewReader(buildCSV(10))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.Contains(t, resp.Error.Message, "exceeds 64 bytes")
}

func TestHandler_ListExportDelete(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(httptest.NewRequest(http.MethodPost, "/1/transcription",
		strings.NewReader(header+"3,,E,c,c,3\n1,00:01,I,a,a,5\n2,,E,b,b,4\n")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/1/segments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var segs []Segment
	decodeResponse(t, rec, &segs)
	require.Len(t, segs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{segs[0].SegmentID, segs[1].SegmentID, segs[2].SegmentID})

	rec = f.do(httptest.NewRequest(http.MethodGet, "/1/segments.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, header+"1,00:01,I,a,a,5\n2,,E,b,b,4\n3,,E,c,c,3\n", rec.Body.String())

	f.rec.Reset()
	rec = f.do(httptest.NewRequest(http.MethodDelete, "/1/segments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted map[string]int64
	decodeResponse(t, rec, &deleted)
	assert.Equal(t, int64(3), deleted["deleted"])
	assert.Equal(t, InterviewPaths(1), f.rec.Paths())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/1/segments", nil))
	segs = nil
	decodeResponse(t, rec, &segs)
	assert.Empty(t, segs)
}

func TestHandler_ReadsOfUnknownInterview(t *testing.T) {
	f := newFixture(t, 0)
	for _, path := range []string{"/9/segments", "/9/segments.csv"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec := f.do(httptest.NewRequest(http.MethodDelete, "/9/segments", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// brokenWriter accepts headers but fails every body write, like a client that hung up.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestHandler_ExportWriteFailureIsLogged(t *testing.T) {
	gw := gateway.NewMemory()
	rec := &revalidate.Recorder{}
	core, logs := observer.New(zapcore.WarnLevel)
	h := NewHandler(NewImporter(gw, rec, nil), NewRepository(gw), rec, 0, zap.New(core))
	id := seedInterview(t, gw)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/%d/segments.csv", id), nil)
	h.Router().ServeHTTP(brokenWriter{httptest.NewRecorder()}, req)

	entries := logs.FilterMessage("csv export interrupted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken pipe", entries[0].ContextMap()["error"])
	assert.Equal(t, id, entries[0].ContextMap()["interview"])
}
