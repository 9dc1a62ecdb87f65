package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/directory/domain/directory"
	"github.com/bankhub/testcard-portal/modules/directory/presentation/controllers/dtos"
	"github.com/bankhub/testcard-portal/modules/directory/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/httpapi"
	"github.com/bankhub/testcard-portal/pkg/middleware"
)

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err == nil
}

func findParams(r *http.Request) (*directory.FindParams, error) {
	params := &directory.FindParams{}
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := directory.ParseStatus(v)
		if err != nil {
			return nil, err
		}
		params.Status = status
	}
	return params, nil
}

func writeOne(w http.ResponseWriter, status int, data any) {
	_ = httpapi.WriteJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeList(w http.ResponseWriter, data any) {
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

type IssuersController struct {
	issuers  *services.IssuerService
	basePath string
}

func NewIssuersController(app application.Application) application.Controller {
	return &IssuersController{
		issuers:  app.Service(services.IssuerService{}).(*services.IssuerService),
		basePath: "/issuers",
	}
}

func (c *IssuersController) Key() string { return c.basePath }

func (c *IssuersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuth())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
}

func (c *IssuersController) List(w http.ResponseWriter, r *http.Request) {
	params, err := findParams(r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
		return
	}
	items, err := c.issuers.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeList(w, items)
}

func (c *IssuersController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	item, err := c.issuers.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusOK, item)
}

func (c *IssuersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SaveIssuerDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	item, err := c.issuers.Create(r.Context(), dto.ToEntity(0))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusCreated, item)
}

func (c *IssuersController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	var dto dtos.SaveIssuerDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	item, err := c.issuers.Update(r.Context(), dto.ToEntity(id))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusOK, item)
}

type PartnersController struct {
	partners *services.PartnerService
	basePath string
}

func NewPartnersController(app application.Application) application.Controller {
	return &PartnersController{
		partners: app.Service(services.PartnerService{}).(*services.PartnerService),
		basePath: "/partners",
	}
}

func (c *PartnersController) Key() string { return c.basePath }

func (c *PartnersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuth())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
}

func (c *PartnersController) List(w http.ResponseWriter, r *http.Request) {
	params, err := findParams(r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
		return
	}
	items, err := c.partners.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeList(w, items)
}

func (c *PartnersController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	item, err := c.partners.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusOK, item)
}

func (c *PartnersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SavePartnerDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	item, err := c.partners.Create(r.Context(), dto.ToEntity(0))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusCreated, item)
}

func (c *PartnersController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	var dto dtos.SavePartnerDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	item, err := c.partners.Update(r.Context(), dto.ToEntity(id))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusOK, item)
}

type SystemDefaultsController struct {
	defaults *services.SystemDefaultService
	basePath string
}

func NewSystemDefaultsController(app application.Application) application.Controller {
	return &SystemDefaultsController{
		defaults: app.Service(services.SystemDefaultService{}).(*services.SystemDefaultService),
		basePath: "/system-defaults",
	}
}

func (c *SystemDefaultsController) Key() string { return c.basePath }

func (c *SystemDefaultsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuth())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
}

func (c *SystemDefaultsController) List(w http.ResponseWriter, r *http.Request) {
	params := &directory.DefaultFindParams{}
	if v := r.URL.Query().Get("environment"); v != "" {
		env, err := environment.Parse(v)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ENVIRONMENT", err.Error(), nil)
			return
		}
		params.Environment = env
	}
	items, err := c.defaults.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeList(w, items)
}

func (c *SystemDefaultsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	item, err := c.defaults.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusOK, item)
}

func (c *SystemDefaultsController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SaveSystemDefaultDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	item, err := c.defaults.Create(r.Context(), dto.ToEntity(0))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusCreated, item)
}

func (c *SystemDefaultsController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	var dto dtos.SaveSystemDefaultDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	item, err := c.defaults.Update(r.Context(), dto.ToEntity(id))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeOne(w, http.StatusOK, item)
}
