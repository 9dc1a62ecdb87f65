package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bankhub/testcard-portal/modules/notifications/domain/notification"
	"github.com/bankhub/testcard-portal/pkg/constants"
)

type SaveNotificationDTO struct {
	Type      string    `json:"type" validate:"required,oneof=web mobile"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	Text      string    `json:"text" validate:"required"`
}

func (dto *SaveNotificationDTO) ToEntity(id uint) *notification.Notification {
	return &notification.Notification{
		ID:        id,
		Type:      notification.Type(dto.Type),
		StartDate: dto.StartDate,
		EndDate:   dto.EndDate,
		Text:      dto.Text,
	}
}

// UpdateEnvelopeDTO carries either edited content or a requested status, the
// same shape the dashboard sends for card requests.
type UpdateEnvelopeDTO struct {
	Status    string     `json:"status" validate:"omitempty,oneof=submitted approved returned deleted"`
	Type      string     `json:"type" validate:"omitempty,oneof=web mobile"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Text      string     `json:"text"`
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

func (dto *SaveNotificationDTO) Ok() (map[string]string, bool) { return validateStruct(dto) }
func (dto *UpdateEnvelopeDTO) Ok() (map[string]string, bool)   { return validateStruct(dto) }
