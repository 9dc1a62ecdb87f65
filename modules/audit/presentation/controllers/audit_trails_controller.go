package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bankhub/testcard-portal/modules/audit/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/httpapi"
	"github.com/bankhub/testcard-portal/pkg/middleware"
)

type AuditTrailsController struct {
	audit    *services.AuditService
	basePath string
}

func NewAuditTrailsController(app application.Application) application.Controller {
	return &AuditTrailsController{
		audit:    app.Service(services.AuditService{}).(*services.AuditService),
		basePath: "/audit-trails",
	}
}

func (c *AuditTrailsController) Key() string { return c.basePath }

func (c *AuditTrailsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuth())
	router.HandleFunc("/two-events/{recordId}/{tableName}", c.TwoEvents).Methods(http.MethodGet)
	router.HandleFunc("/{recordId}/{tableName}", c.GetByRecord).Methods(http.MethodGet)
}

// TwoEvents returns the created/last-updated pair a record detail screen
// shows in its footer.
func (c *AuditTrailsController) TwoEvents(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	events, err := c.audit.TwoEvents(r.Context(), vars["recordId"], vars["tableName"])
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"dateCreated":    events.DateCreated,
		"createdBy":      events.CreatedBy,
		"lastUpdateDate": events.LastUpdateDate,
		"updatedBy":      events.UpdatedBy,
	})
}

func (c *AuditTrailsController) GetByRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entries, err := c.audit.GetByRecord(r.Context(), vars["recordId"], vars["tableName"])
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": entries})
}
