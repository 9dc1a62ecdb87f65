package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/bankhub/testcard-portal/pkg/serrors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusCreated, map[string]any{"success": true, "data": 42}))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(42), body["data"])
}

func TestWriteJSON_NilPayloadWritesNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusNoContent, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, rec.Body.Len())
}

func TestWriteDomainError_CodedErrorKeepsCodeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	err := serrors.NewError("NOT_FOUND", "card request not found", "")
	require.NoError(t, WriteDomainError(rec, err))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.Equal(t, "NOT_FOUND", env.Code)
	require.Equal(t, "card request not found", env.Message)
}

func TestWriteDomainError_WrappedCodedErrorStillResolves(t *testing.T) {
	rec := httptest.NewRecorder()
	err := errors.Wrap(serrors.NewError("CONFLICT", "the record changed underneath you", ""), "update failed")
	require.NoError(t, WriteDomainError(rec, err))

	require.Equal(t, http.StatusConflict, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "CONFLICT", env.Code)
}

func TestWriteDomainError_PlainErrorDegradesToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteDomainError(rec, errors.New("pq: connection refused")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "INTERNAL", env.Code)
	require.NotContains(t, env.Message, "pq:")
}

func TestStatusFor(t *testing.T) {
	cases := map[string]int{
		"NOT_FOUND":           http.StatusNotFound,
		"FORBIDDEN":           http.StatusForbidden,
		"UNAUTHORIZED":        http.StatusUnauthorized,
		"INVALID_CREDENTIALS": http.StatusUnauthorized,
		"CONFLICT":            http.StatusConflict,
		"OTP_INVALID":         http.StatusBadRequest,
	}
	for code, want := range cases {
		require.Equal(t, want, statusFor(code), code)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))

	var dst payload
	require.NoError(t, DecodeJSON(req, &dst))
	require.Equal(t, "a@b.c", dst.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	require.Error(t, DecodeJSON(req, &payload{}))
}
