package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bankhub/testcard-portal/pkg/serrors"
)

// ErrorEnvelope is the failure shape of every endpoint: clients read
// `message` (or `error`) verbatim and treat anything without success=true as a
// failure.
type ErrorEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Success: false,
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteDomainError maps a service error onto the wire: coded errors keep their
// code and message, everything else degrades to a generic failure string so
// internals never leak.
func WriteDomainError(w http.ResponseWriter, err error) error {
	var base *serrors.Base
	if errors.As(err, &base) {
		return WriteError(w, statusFor(base.Code), base.Code, base.Message, nil)
	}
	return WriteError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong, please try again", nil)
}

func statusFor(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "FORBIDDEN":
		return http.StatusForbidden
	case "UNAUTHORIZED", "INVALID_CREDENTIALS":
		return http.StatusUnauthorized
	case "CONFLICT":
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// DecodeJSON reads a JSON request body into dst, limiting its size.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(dst)
}
