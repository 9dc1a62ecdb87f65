package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/presentation/controllers/dtos"
	"github.com/bankhub/testcard-portal/modules/core/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/httpapi"
	"github.com/bankhub/testcard-portal/pkg/middleware"
)

type UsersController struct {
	app      application.Application
	auth     *services.AuthService
	users    *services.UserService
	basePath string
}

func NewUsersController(app application.Application) application.Controller {
	return &UsersController{
		app:      app,
		auth:     app.Service(services.AuthService{}).(*services.AuthService),
		users:    app.Service(services.UserService{}).(*services.UserService),
		basePath: "/users",
	}
}

func (c *UsersController) Key() string {
	return c.basePath
}

func (c *UsersController) Register(r *mux.Router) {
	public := r.PathPrefix(c.basePath).Subrouter()
	public.HandleFunc("/login", c.Login).Methods(http.MethodPost)
	public.HandleFunc("/verify-otp", c.VerifyOTP).Methods(http.MethodPost)
	public.HandleFunc("/resend-otp", c.ResendOTP).Methods(http.MethodPost)
	public.HandleFunc("/forgot-password", c.ForgotPassword).Methods(http.MethodPost)
	public.HandleFunc("/check-token", c.CheckToken).Methods(http.MethodPost)
	public.HandleFunc("/reset-password", c.ResetPassword).Methods(http.MethodPost)

	private := r.PathPrefix(c.basePath).Subrouter()
	private.Use(middleware.RequireAuth())
	private.HandleFunc("/change-password", c.ChangePassword).Methods(http.MethodPost)
	private.HandleFunc("/logout", c.Logout).Methods(http.MethodPost)
	private.HandleFunc("/me", c.Me).Methods(http.MethodGet)
	private.HandleFunc("", c.List).Methods(http.MethodGet)
	private.HandleFunc("", c.Create).Methods(http.MethodPost)
	private.HandleFunc("/{id:[0-9]+}", c.GetByID).Methods(http.MethodGet)
	private.HandleFunc("/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
	private.HandleFunc("/{id:[0-9]+}", c.Delete).Methods(http.MethodDelete)
}

func (c *UsersController) Login(w http.ResponseWriter, r *http.Request) {
	var dto dtos.LoginDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	result, err := c.auth.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	if result.Locked {
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "locked": true})
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "showOtp": result.ShowOTP})
}

func (c *UsersController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var dto dtos.VerifyOTPDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	pair, err := c.auth.VerifyOTP(r.Context(), dto.Email, dto.Code)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   pair.Token,
		// Historic field name, kept for wire compatibility with deployed
		// clients.
		"ciperText": pair.CipherText,
	})
}

func (c *UsersController) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ResendOTPDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	if err := c.auth.ResendOTP(r.Context(), dto.Email); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (c *UsersController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ForgotPasswordDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	if err := c.auth.ForgotPassword(r.Context(), dto.Email); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (c *UsersController) CheckToken(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CheckTokenDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	if err := c.auth.CheckToken(r.Context(), dto.Token); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (c *UsersController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ResetPasswordDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	if err := c.auth.ResetPassword(r.Context(), dto.Token, dto.Password); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (c *UsersController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ChangePasswordDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	if err := c.auth.ChangePassword(r.Context(), dto.OldPassword, dto.NewPassword); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (c *UsersController) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if err := c.auth.Logout(r.Context(), token); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (c *UsersController) Me(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    dtos.NewUserResponse(u),
	})
}

func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &user.FindParams{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  conf.PageSize,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= conf.MaxPageSize {
			params.Limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			params.Offset = parsed
		}
	}
	if v := r.URL.Query().Get("role"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			params.Role = user.Role(parsed)
		}
	}

	items, err := c.users.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	total, err := c.users.Count(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}

	out := make([]*dtos.UserResponse, 0, len(items))
	for _, u := range items {
		out = append(out, dtos.NewUserResponse(u))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    out,
		"total":   total,
	})
}

func (c *UsersController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid user id", nil)
		return
	}
	u, err := c.users.GetByID(r.Context(), uint(id))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    dtos.NewUserResponse(u),
	})
}

func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SaveUserDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	entity, err := dto.ToEntity()
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	created, err := c.users.Create(r.Context(), entity)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    dtos.NewUserResponse(created),
	})
}

func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid user id", nil)
		return
	}
	var dto dtos.SaveUserDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "validation failed", errs)
		return
	}
	existing, err := c.users.GetByID(r.Context(), uint(id))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	// An empty password keeps the stored hash.
	entity, err := dto.ToEntity(
		user.WithID(existing.ID()),
		user.WithPasswordHash(existing.PasswordHash()),
	)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	updated, err := c.users.Update(r.Context(), entity)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    dtos.NewUserResponse(updated),
	})
}

func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid user id", nil)
		return
	}
	if err := c.users.Delete(r.Context(), uint(id)); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
