package response_test

import (
	"encoding/json"
	"errors"
	"messbook/shared/failure"
	"messbook/transport/http/response"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithJSON(rec, http.StatusOK, map[string]int{"single_available": 2})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"single_available": float64(2)}, body["data"])
}

func TestWithMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	response.WithMessage(rec, http.StatusOK, "Order cancelled")
	assert.Equal(t, map[string]any{"success": true, "message": "Order cancelled"}, decode(t, rec))

	rec = httptest.NewRecorder()
	response.WithRequestLimitExceeded(rec)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestWithError(t *testing.T) {
	upstream := failure.UpstreamFailure("failed to create checkout session", errors.New("stripe: api key invalid"))

	tests := []struct {
		name     string
		err      error
		expose   bool
		code     int
		expected map[string]any
	}{
		{
			name:     "failure message is sent as is",
			err:      failure.NoAvailability("no single seats available"),
			code:     http.StatusBadRequest,
			expected: map[string]any{"success": false, "error": "no single seats available"},
		},
		{
			name:     "details hidden outside development",
			err:      upstream,
			code:     http.StatusInternalServerError,
			expected: map[string]any{"success": false, "error": "failed to create checkout session"},
		},
		{
			name:   "details exposed in development",
			err:    upstream,
			expose: true,
			code:   http.StatusInternalServerError,
			expected: map[string]any{
				"success": false,
				"error":   "failed to create checkout session",
				"details": "stripe: api key invalid",
			},
		},
		{
			name:     "plain errors are generic",
			err:      errors.New("pq: connection refused"),
			code:     http.StatusInternalServerError,
			expected: map[string]any{"success": false, "error": "Internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response.ExposeDetails(tt.expose)
			t.Cleanup(func() { response.ExposeDetails(false) })

			rec := httptest.NewRecorder()
			response.WithError(rec, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.expected, decode(t, rec))
		})
	}
}
