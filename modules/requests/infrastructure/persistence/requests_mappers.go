package persistence

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/modules/requests/infrastructure/persistence/models"
)

func toDBCardRequest(entity *cardrequest.CardRequest) (*models.CardRequest, error) {
	requestorInfo, err := json.Marshal(entity.RequestorInfo)
	if err != nil {
		return nil, err
	}
	row := &models.CardRequest{
		ID:            entity.ID.String(),
		RequestID:     entity.RequestID,
		Status:        string(entity.Status),
		Environment:   int(entity.Environment),
		TerminalType:  string(entity.TerminalType),
		RequestorID:   entity.RequestorID,
		RequestorInfo: requestorInfo,
		Version:       entity.Version,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
	if row.TestInfo, err = marshalStep(entity.TestInfo); err != nil {
		return nil, err
	}
	if row.TerminalInfo, err = marshalStep(entity.TerminalInfo); err != nil {
		return nil, err
	}
	if row.ShippingInfo, err = marshalStep(entity.ShippingInfo); err != nil {
		return nil, err
	}
	if row.FulfilmentInfo, err = marshalStep(entity.FulfilmentInfo); err != nil {
		return nil, err
	}
	return row, nil
}

func marshalStep[T any](step *T) ([]byte, error) {
	if step == nil {
		return nil, nil
	}
	return json.Marshal(step)
}

func unmarshalStep[T any](raw []byte) (*T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func toDomainCardRequest(row *models.CardRequest) (*cardrequest.CardRequest, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	status, err := cardrequest.ParseStatus(row.Status)
	if err != nil {
		return nil, err
	}
	entity := &cardrequest.CardRequest{
		ID:           id,
		RequestID:    row.RequestID,
		Status:       status,
		Environment:  environment.Environment(row.Environment),
		TerminalType: cardrequest.TerminalType(row.TerminalType),
		RequestorID:  row.RequestorID,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.RequestorInfo) > 0 {
		if err := json.Unmarshal(row.RequestorInfo, &entity.RequestorInfo); err != nil {
			return nil, err
		}
	}
	if entity.TestInfo, err = unmarshalStep[cardrequest.TestInfo](row.TestInfo); err != nil {
		return nil, err
	}
	if entity.TerminalInfo, err = unmarshalStep[cardrequest.TerminalInfo](row.TerminalInfo); err != nil {
		return nil, err
	}
	if entity.ShippingInfo, err = unmarshalStep[cardrequest.ShippingInfo](row.ShippingInfo); err != nil {
		return nil, err
	}
	if entity.FulfilmentInfo, err = unmarshalStep[cardrequest.FulfilmentInfo](row.FulfilmentInfo); err != nil {
		return nil, err
	}
	return entity, nil
}

func toDomainComment(row *models.CardRequestComment) cardrequest.Comment {
	return cardrequest.Comment{
		ID:        row.ID,
		AuthorID:  row.AuthorID,
		Author:    row.Author,
		Status:    cardrequest.Status(row.Status),
		Text:      row.Text,
		CreatedAt: row.CreatedAt,
	}
}
