package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("granularity", "must be one of day, month, quarter")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	details, ok := err.Details.(ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "granularity", details.Field)
}

func TestHandleError(t *testing.T) {
	handler := NewErrorHandler(nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "api error passes through", err: ErrDatasetNotFound, wantStatus: http.StatusNotFound},
		{name: "ingest error", err: IngestError(fmt.Errorf("no header row")), wantStatus: http.StatusUnprocessableEntity},
		{name: "unknown error becomes 500", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/datasets/abc", nil)
			handler.HandleError(rec, req, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}
