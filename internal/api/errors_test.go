package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/geocode"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/pipeline"
	"github.com/layermap/backend/internal/routing"
	"github.com/layermap/backend/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error passes through", NewConflictError("busy"), http.StatusConflict, "CONFLICT"},
		{"selection", &mapkit.SelectionError{Kind: "layer", Name: "Volcanoes"}, http.StatusNotFound, "NOT_FOUND"},
		{"configuration", &mapkit.ConfigurationError{Entity: "layer", Name: "x", Err: storage.ErrNotFound}, http.StatusBadRequest, "CONFIGURATION_ERROR"},
		{"storage miss", fmt.Errorf("%w: abc", storage.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"empty query", geocode.ErrEmptyQuery, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"incomplete route", routing.ErrIncomplete, http.StatusBadRequest, "BAD_REQUEST"},
		{"pipeline misuse", &pipeline.PipelineMisuseError{EntityID: "root", Op: "start", State: pipeline.StateDone}, http.StatusConflict, "CONFLICT"},
		{"loop timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), c)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"HTTP_ERROR"`)

	ShowErrorDetails = false
	defer func() { ShowErrorDetails = true }()
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(errors.New("secret path /etc/x"), c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/etc/x")
}
