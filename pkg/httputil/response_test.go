package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestWriteSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(rr, map[string]string{"id": "u-1"}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	env := decode(t, rr)
	assert.True(t, env.Success)
	assert.Empty(t, env.Message)
	assert.NotNil(t, env.Data)
}

func TestWriteCreated(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, WriteCreated(rr, map[string]string{"id": "u-1"}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, decode(t, rr).Success)
}

func TestWriteUnauthorizedSetsChallenge(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteUnauthorized(rr, "invalid authentication token")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

	env := decode(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid authentication token", env.Message)
}

func TestRejectionStatuses(t *testing.T) {
	cases := []struct {
		name  string
		write func(http.ResponseWriter, string)
		want  int
	}{
		{"bad request", WriteBadRequest, http.StatusBadRequest},
		{"forbidden", WriteForbidden, http.StatusForbidden},
		{"not found", WriteNotFound, http.StatusNotFound},
		{"conflict", WriteConflict, http.StatusConflict},
		{"too many requests", WriteTooManyRequests, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.write(rr, "nope")

			assert.Equal(t, tc.want, rr.Code)
			env := decode(t, rr)
			assert.False(t, env.Success)
			assert.Equal(t, "nope", env.Message)
		})
	}
}

func TestWriteInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteInternalError(rr)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", decode(t, rr).Message)
}

func TestParseJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Asha"}`))
	var body struct {
		Name string `json:"name"`
	}
	require.NoError(t, ParseJSON(req, &body))
	assert.Equal(t, "Asha", body.Name)
}

func TestParseJSONOrErrorWritesBadRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))
	rr := httptest.NewRecorder()

	var body map[string]interface{}
	ok := ParseJSONOrError(rr, req, &body)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, decode(t, rr).Success)
}
