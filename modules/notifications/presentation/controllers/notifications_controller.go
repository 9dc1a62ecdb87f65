package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bankhub/testcard-portal/modules/notifications/domain/notification"
	"github.com/bankhub/testcard-portal/modules/notifications/presentation/controllers/dtos"
	"github.com/bankhub/testcard-portal/modules/notifications/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/httpapi"
	"github.com/bankhub/testcard-portal/pkg/middleware"
)

type NotificationsController struct {
	notices  *services.NotificationService
	basePath string
}

func NewNotificationsController(app application.Application) application.Controller {
	return &NotificationsController{
		notices:  app.Service(services.NotificationService{}).(*services.NotificationService),
		basePath: "/notifications",
	}
}

func (c *NotificationsController) Key() string { return c.basePath }

func (c *NotificationsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuth())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/web", c.ActiveWeb).Methods(http.MethodGet)
	router.HandleFunc("/attachment/{id:[0-9]+}", c.Attach).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id:[0-9]+}", c.Delete).Methods(http.MethodDelete)
}

func noticeID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err == nil
}

func writeNotice(w http.ResponseWriter, status int, data any) {
	_ = httpapi.WriteJSON(w, status, map[string]any{"success": true, "data": data})
}

func (c *NotificationsController) List(w http.ResponseWriter, r *http.Request) {
	params := &notification.FindParams{}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status, err := notification.ParseStatus(v)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
			return
		}
		params.Status = status
	}
	if v := q.Get("type"); v != "" {
		kind, err := notification.ParseType(v)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_TYPE", err.Error(), nil)
			return
		}
		params.Type = kind
	}
	items, err := c.notices.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeNotice(w, http.StatusOK, items)
}

// ActiveWeb is the 30s poll target behind the header badge.
func (c *NotificationsController) ActiveWeb(w http.ResponseWriter, r *http.Request) {
	items, err := c.notices.ActiveWeb(r.Context())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeNotice(w, http.StatusOK, items)
}

func (c *NotificationsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	item, err := c.notices.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeNotice(w, http.StatusOK, item)
}

func (c *NotificationsController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SaveNotificationDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	item, err := c.notices.Create(r.Context(), dto.ToEntity(0))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeNotice(w, http.StatusCreated, item)
}

func (c *NotificationsController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
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

	if dto.Status != "" {
		var item *notification.Notification
		var err error
		switch notification.Status(dto.Status) {
		case notification.StatusSubmitted:
			item, err = c.notices.Submit(r.Context(), id)
		case notification.StatusApproved:
			item, err = c.notices.Approve(r.Context(), id)
		case notification.StatusReturned:
			item, err = c.notices.Return(r.Context(), id)
		case notification.StatusDeleted:
			item, err = c.notices.Delete(r.Context(), id)
		}
		if err != nil {
			_ = httpapi.WriteDomainError(w, err)
			return
		}
		writeNotice(w, http.StatusOK, item)
		return
	}

	entity := &notification.Notification{
		ID:   id,
		Type: notification.Type(dto.Type),
		Text: dto.Text,
	}
	if dto.StartDate != nil {
		entity.StartDate = *dto.StartDate
	}
	if dto.EndDate != nil {
		entity.EndDate = *dto.EndDate
	}
	item, err := c.notices.Update(r.Context(), entity)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeNotice(w, http.StatusOK, item)
}

// Attach accepts a multipart form with a single "file" part holding a PDF.
func (c *NotificationsController) Attach(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	conf := configuration.Use()
	r.Body = http.MaxBytesReader(w, r.Body, conf.MaxUploadSize)
	if err := r.ParseMultipartForm(conf.MaxUploadSize); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error(), nil)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_UPLOAD", "no file found", nil)
		return
	}
	defer func() { _ = file.Close() }()

	item, err := c.notices.AttachPDF(r.Context(), id, file)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeNotice(w, http.StatusOK, item)
}

func (c *NotificationsController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeID(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid id", nil)
		return
	}
	item, err := c.notices.Delete(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	writeNotice(w, http.StatusOK, item)
}
