package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.NewUnauthorized("x"), http.StatusUnauthorized},
		{apperr.NewForbidden("x"), http.StatusForbidden},
		{apperr.NewNotFound("x"), http.StatusNotFound},
		{apperr.NewInvalidState("x"), http.StatusConflict},
		{apperr.NewConflict("x"), http.StatusConflict},
		{apperr.NewValidationFailed("x"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusFor(tt.err), tt.err.Error())
	}
}

func TestErrorHidesInternalDetails(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	w := httptest.NewRecorder()
	Error(w, log, errors.New("database is locked"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "locked")

	w = httptest.NewRecorder()
	Error(w, log, apperr.NewInvalidState("Le tournoi est terminé"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Le tournoi est terminé", strings.TrimSpace(w.Body.String()))
}

func TestJSONError(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	w := httptest.NewRecorder()
	JSONError(w, log, apperr.NewNotFound("Tournoi introuvable"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Tournoi introuvable","kind":"not_found"}`, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}
