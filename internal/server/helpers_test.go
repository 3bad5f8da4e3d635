package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/advisor/internal/apperr"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc", body["id"])
}

func TestWriteServiceError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, apperr.New(apperr.KindDuplicateEmail, "already registered"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "already registered", resp.Error)
	assert.Equal(t, "duplicate_email", resp.Code)

	// Untyped errors become opaque 500s.
	rec = httptest.NewRecorder()
	WriteServiceError(rec, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.True(t, RequireMethod(rec, req, http.MethodGet, http.MethodHead))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/x", nil)
	assert.False(t, RequireMethod(rec, req, http.MethodGet))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"alice"}`))
	var p payload
	assert.True(t, DecodeJSON(rec, req, &p))
	assert.Equal(t, "alice", p.Name)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{bad json`))
	assert.False(t, DecodeJSON(rec, req, &p))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPathParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/clients/abc-123/portfolio", nil)
	assert.Equal(t, "abc-123", PathParam(req, "/api/clients/", "/portfolio"))

	req = httptest.NewRequest(http.MethodGet, "/api/clients/abc-123", nil)
	assert.Equal(t, "abc-123", PathParam(req, "/api/clients/", ""))

	req = httptest.NewRequest(http.MethodGet, "/other/path", nil)
	assert.Equal(t, "", PathParam(req, "/api/clients/", ""))
}
