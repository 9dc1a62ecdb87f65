package dtos

import (
	"github.com/go-playground/validator/v10"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/directory/domain/directory"
	"github.com/bankhub/testcard-portal/pkg/constants"
)

type SaveIssuerDTO struct {
	Name         string `json:"name" validate:"required"`
	BIN          string `json:"bin" validate:"required,numeric,min=6,max=8"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	Status       string `json:"status" validate:"omitempty,oneof=draft active inactive"`
}

func (dto *SaveIssuerDTO) ToEntity(id uint) *directory.Issuer {
	return &directory.Issuer{
		ID:           id,
		Name:         dto.Name,
		BIN:          dto.BIN,
		ContactName:  dto.ContactName,
		ContactEmail: dto.ContactEmail,
		Status:       directory.Status(dto.Status),
	}
}

type SavePartnerDTO struct {
	Name         string `json:"name" validate:"required"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone"`
	Status       string `json:"status" validate:"omitempty,oneof=draft active inactive"`
}

func (dto *SavePartnerDTO) ToEntity(id uint) *directory.Partner {
	return &directory.Partner{
		ID:           id,
		Name:         dto.Name,
		ContactName:  dto.ContactName,
		ContactEmail: dto.ContactEmail,
		ContactPhone: dto.ContactPhone,
		Status:       directory.Status(dto.Status),
	}
}

type SaveSystemDefaultDTO struct {
	Environment int    `json:"environment" validate:"required,min=1,max=3"`
	Name        string `json:"name" validate:"required"`
	Value       int64  `json:"value" validate:"required"`
}

func (dto *SaveSystemDefaultDTO) ToEntity(id uint) *directory.SystemDefault {
	return &directory.SystemDefault{
		ID:          id,
		Environment: environment.Environment(dto.Environment),
		Name:        dto.Name,
		Value:       dto.Value,
	}
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

func (dto *SaveIssuerDTO) Ok() (map[string]string, bool)        { return validateStruct(dto) }
func (dto *SavePartnerDTO) Ok() (map[string]string, bool)       { return validateStruct(dto) }
func (dto *SaveSystemDefaultDTO) Ok() (map[string]string, bool) { return validateStruct(dto) }
