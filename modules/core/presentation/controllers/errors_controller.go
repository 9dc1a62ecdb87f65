package controllers

import (
	"net/http"

	"github.com/bankhub/testcard-portal/pkg/httpapi"
)

// NotFound is installed as the router's NotFoundHandler so unknown paths get
// the same envelope as every other error.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "not found", map[string]string{
			"path": r.URL.Path,
		})
	}
}

func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", map[string]string{
			"path":   r.URL.Path,
			"method": r.Method,
		})
	}
}
