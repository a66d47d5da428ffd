package researchers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
)

func TestHandler_CreateAndValidate(t *testing.T) {
	rec := &revalidate.Recorder{}
	router := NewHandler(NewRepository(gateway.NewMemory()), rec).Router()

	post := func(body string) *httptest.ResponseRecorder {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
		return res
	}

	res := post(`{"codigo":"INV1","nombre":"Ana Ruiz","email":" Ana@Example.org "}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var got struct {
		Data Researcher `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	require.NotNil(t, got.Data.Email)
	assert.Equal(t, "ana@example.org", *got.Data.Email)

	res = post(`{"codigo":"INV2","nombre":"Luis","email":"not-an-address"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = post(`{"codigo":"INV1","nombre":"Duplicado"}`)
	assert.Equal(t, http.StatusConflict, res.Code)

	res = post(`{"codigo":`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	assert.Equal(t, []string{"/researchers"}, rec.Paths())
}
