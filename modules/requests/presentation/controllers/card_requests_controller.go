package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/modules/requests/presentation/controllers/dtos"
	"github.com/bankhub/testcard-portal/modules/requests/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/httpapi"
	"github.com/bankhub/testcard-portal/pkg/middleware"
)

type CardRequestsController struct {
	app      application.Application
	requests *services.CardRequestService
	basePath string
}

func NewCardRequestsController(app application.Application) application.Controller {
	return &CardRequestsController{
		app:      app,
		requests: app.Service(services.CardRequestService{}).(*services.CardRequestService),
		basePath: "/card-requests",
	}
}

func (c *CardRequestsController) Key() string {
	return c.basePath
}

func (c *CardRequestsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuth())

	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/status", c.FulfilmentQueue).Methods(http.MethodGet)
	router.HandleFunc("/requestor-info/{id}", c.SaveRequestorInfo).Methods(http.MethodPut)
	router.HandleFunc("/test-info/{id}", c.SaveTestInfo).Methods(http.MethodPut)
	router.HandleFunc("/terminal-info/{id}", c.SaveTerminalInfo).Methods(http.MethodPut)
	router.HandleFunc("/shipping-details/{id}", c.SaveShippingDetails).Methods(http.MethodPut)
	router.HandleFunc("/snStatusVerify/{id}", c.SetSNStatusVerify).Methods(http.MethodPut)
	router.HandleFunc("/duplicate/{id}", c.Duplicate).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func requestID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

func (c *CardRequestsController) writeRequest(w http.ResponseWriter, status int, req *cardrequest.CardRequest) {
	_ = httpapi.WriteJSON(w, status, map[string]any{
		"success": true,
		"data":    dtos.NewCardRequestResponse(req),
	})
}

func (c *CardRequestsController) List(w http.ResponseWriter, r *http.Request) {
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	items, err := c.requests.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	total, err := c.requests.Count(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]*dtos.CardRequestResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dtos.NewCardRequestResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    out,
		"total":   total,
	})
}

// FulfilmentQueue serves GET /card-requests/status, the SME work list.
func (c *CardRequestsController) FulfilmentQueue(w http.ResponseWriter, r *http.Request) {
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	items, err := c.requests.FulfilmentQueue(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]*dtos.CardRequestResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dtos.NewCardRequestResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    out,
	})
}

func listParams(w http.ResponseWriter, r *http.Request) (*cardrequest.FindParams, bool) {
	conf := configuration.Use()
	q := r.URL.Query()
	params := &cardrequest.FindParams{Limit: conf.PageSize}

	if v := q.Get("status"); v != "" {
		status, err := cardrequest.ParseStatus(v)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
			return nil, false
		}
		params.Status = status
	}
	if v := q.Get("environment"); v != "" {
		env, err := environment.Parse(v)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ENVIRONMENT", err.Error(), nil)
			return nil, false
		}
		params.Environment = env
	}
	if v := q.Get("terminalType"); v != "" {
		tt, err := cardrequest.ParseTerminalType(v)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_TERMINAL_TYPE", err.Error(), nil)
			return nil, false
		}
		params.TerminalType = tt
	}
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= conf.MaxPageSize {
			params.Limit = parsed
		}
	}
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			params.Offset = parsed
		}
	}
	return params, true
}

func (c *CardRequestsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	req, err := c.requests.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}

// Create starts a new request from the first wizard step.
func (c *CardRequestsController) Create(w http.ResponseWriter, r *http.Request) {
	c.saveRequestorInfo(w, r, uuid.Nil, http.StatusCreated)
}

func (c *CardRequestsController) SaveRequestorInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	c.saveRequestorInfo(w, r, id, http.StatusOK)
}

func (c *CardRequestsController) saveRequestorInfo(w http.ResponseWriter, r *http.Request, id uuid.UUID, okStatus int) {
	var dto dtos.RequestorInfoDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}

	env := environment.QA
	if dto.Environment != "" {
		parsed, err := environment.Parse(dto.Environment)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ENVIRONMENT", err.Error(), nil)
			return
		}
		env = parsed
	}
	terminalType := cardrequest.TerminalEcomm
	if dto.TerminalType != "" {
		parsed, err := cardrequest.ParseTerminalType(dto.TerminalType)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_TERMINAL_TYPE", err.Error(), nil)
			return
		}
		terminalType = parsed
	}

	req, err := c.requests.SaveRequestorInfo(r.Context(), id, dto.ToRecord(), env, terminalType)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, okStatus, req)
}

func (c *CardRequestsController) SaveTestInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	var dto dtos.TestInfoDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	req, err := c.requests.SaveTestInfo(r.Context(), id, dto.ToRecord())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}

func (c *CardRequestsController) SaveTerminalInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	var dto dtos.TerminalInfoDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	req, err := c.requests.SaveTerminalInfo(r.Context(), id, dto.ToRecord())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}

// SaveShippingDetails is the final wizard step and doubles as submit.
func (c *CardRequestsController) SaveShippingDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	var dto dtos.ShippingInfoDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	req, err := c.requests.SaveShippingDetails(r.Context(), id, dto.ToRecord())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}

func (c *CardRequestsController) SetSNStatusVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	var dto dtos.SNStatusVerifyDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	req, err := c.requests.SetSNStatusVerify(r.Context(), id, dto.Verified)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}

func (c *CardRequestsController) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	req, err := c.requests.Duplicate(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusCreated, req)
}

// Update is the legacy generic envelope: a status value requests a
// transition, a column value routes submitData to the matching wizard step.
func (c *CardRequestsController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	var dto dtos.UpdateEnvelopeDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}

	if dto.SNStatusVerify != nil {
		req, err := c.requests.SetSNStatusVerify(r.Context(), id, *dto.SNStatusVerify)
		if err != nil {
			_ = httpapi.WriteDomainError(w, err)
			return
		}
		c.writeRequest(w, http.StatusOK, req)
		return
	}

	if dto.Status != "" {
		c.transitionTo(w, r, id, dto.Status, dto.Comment)
		return
	}

	if dto.Column != "" {
		c.updateColumn(w, r, id, &dto)
		return
	}

	_ = httpapi.WriteError(w, http.StatusBadRequest, "EMPTY_UPDATE", "nothing to update", nil)
}

func (c *CardRequestsController) transitionTo(w http.ResponseWriter, r *http.Request, id uuid.UUID, status, comment string) {
	target, err := cardrequest.ParseStatus(status)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
		return
	}

	var req *cardrequest.CardRequest
	switch target {
	case cardrequest.StatusApproved, cardrequest.StatusCompleted:
		req, err = c.requests.Approve(r.Context(), id, comment)
	case cardrequest.StatusReturned:
		req, err = c.requests.Reject(r.Context(), id, comment)
	case cardrequest.StatusAssignCard:
		req, err = c.requests.AssignCard(r.Context(), id, comment)
	case cardrequest.StatusShipped:
		req, err = c.requests.Ship(r.Context(), id, comment)
	case cardrequest.StatusDeleted:
		req, err = c.requests.Delete(r.Context(), id)
	default:
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_STATUS",
			"status "+strings.TrimSpace(status)+" cannot be requested directly", nil)
		return
	}
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}

func (c *CardRequestsController) updateColumn(w http.ResponseWriter, r *http.Request, id uuid.UUID, dto *dtos.UpdateEnvelopeDTO) {
	decode := func(dst interface{}) bool {
		if err := json.Unmarshal(dto.SubmitData, dst); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid submitData", nil)
			return false
		}
		return true
	}

	var req *cardrequest.CardRequest
	var err error
	switch dto.Column {
	case "requestor_info":
		var sub dtos.RequestorInfoDTO
		if !decode(&sub) {
			return
		}
		env := environment.Environment(dto.Environment)
		if !env.IsValid() {
			env = environment.QA
		}
		terminalType := cardrequest.TerminalEcomm
		if sub.TerminalType != "" {
			if terminalType, err = cardrequest.ParseTerminalType(sub.TerminalType); err != nil {
				_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_TERMINAL_TYPE", err.Error(), nil)
				return
			}
		}
		req, err = c.requests.SaveRequestorInfo(r.Context(), id, sub.ToRecord(), env, terminalType)
	case "test_info":
		var sub dtos.TestInfoDTO
		if !decode(&sub) {
			return
		}
		req, err = c.requests.SaveTestInfo(r.Context(), id, sub.ToRecord())
	case "terminal_info":
		var sub dtos.TerminalInfoDTO
		if !decode(&sub) {
			return
		}
		req, err = c.requests.SaveTerminalInfo(r.Context(), id, sub.ToRecord())
	case "shipping_details":
		var sub dtos.ShippingInfoDTO
		if !decode(&sub) {
			return
		}
		req, err = c.requests.SaveShippingDetails(r.Context(), id, sub.ToRecord())
	default:
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_COLUMN", "unknown column "+dto.Column, nil)
		return
	}
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}

func (c *CardRequestsController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid request id", nil)
		return
	}
	req, err := c.requests.Delete(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	c.writeRequest(w, http.StatusOK, req)
}
