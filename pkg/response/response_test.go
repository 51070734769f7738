package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "Appointment booked successfully", map[string]int{"slot_index": 18})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"slot_index": float64(18)}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"Date": "Date is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, map[string]interface{}{"Date": "Date is required"}, body["error"])
}

func TestDefaultMessages(t *testing.T) {
	tests := []struct {
		write   func(http.ResponseWriter, string)
		status  int
		message string
	}{
		{BadRequest, http.StatusBadRequest, "Bad request"},
		{Unauthorized, http.StatusUnauthorized, "Unauthorized"},
		{Forbidden, http.StatusForbidden, "Forbidden"},
		{InternalServerError, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		tt.write(rec, "")
		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.message, decode(t, rec)["message"])
	}
}
