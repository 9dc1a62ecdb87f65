package dtos

import (
	"github.com/go-playground/validator/v10"

	"github.com/bankhub/testcard-portal/pkg/constants"
)

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPDTO struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required"`
}

type ResendOTPDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type CheckTokenDTO struct {
	Token string `json:"token" validate:"required"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func validateStruct(dto interface{}) (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(dto)
	if errs == nil {
		return errorMessages, true
	}
	for _, err := range errs.(validator.ValidationErrors) {
		errorMessages[err.Field()] = err.Tag()
	}
	return errorMessages, false
}

func (dto *LoginDTO) Ok() (map[string]string, bool)          { return validateStruct(dto) }
func (dto *VerifyOTPDTO) Ok() (map[string]string, bool)      { return validateStruct(dto) }
func (dto *ResendOTPDTO) Ok() (map[string]string, bool)      { return validateStruct(dto) }
func (dto *ForgotPasswordDTO) Ok() (map[string]string, bool) { return validateStruct(dto) }
func (dto *CheckTokenDTO) Ok() (map[string]string, bool)     { return validateStruct(dto) }
func (dto *ResetPasswordDTO) Ok() (map[string]string, bool)  { return validateStruct(dto) }
func (dto *ChangePasswordDTO) Ok() (map[string]string, bool) { return validateStruct(dto) }
