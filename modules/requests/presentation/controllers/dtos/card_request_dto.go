package dtos

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/pkg/constants"
)

type RequestorInfoDTO struct {
	SNTicket       string `json:"snRequest" validate:"required"`
	RequestorName  string `json:"requestorName" validate:"omitempty"`
	Email          string `json:"email" validate:"omitempty,email"`
	PartnerID      uint   `json:"partnerId" validate:"omitempty"`
	RequestForSelf bool   `json:"requestForSelf"`
	Environment    string `json:"environment" validate:"omitempty"`
	TerminalType   string `json:"terminalType" validate:"omitempty"`
}

func (dto *RequestorInfoDTO) ToRecord() cardrequest.RequestorInfo {
	return cardrequest.RequestorInfo{
		SNTicket:       dto.SNTicket,
		RequestorName:  dto.RequestorName,
		Email:          dto.Email,
		PartnerID:      dto.PartnerID,
		RequestForSelf: dto.RequestForSelf,
	}
}

type TestInfoDTO struct {
	Objective    string    `json:"objective" validate:"required"`
	StartDate    time.Time `json:"startDate" validate:"omitempty"`
	EndDate      time.Time `json:"endDate" validate:"omitempty,gtefield=StartDate"`
	TxnLimit     int       `json:"txnLimit" validate:"omitempty,gte=0"`
	MCCCodes     []string  `json:"mccCodes" validate:"omitempty"`
	CountryCodes []string  `json:"countryCodes" validate:"omitempty"`
}

func (dto *TestInfoDTO) ToRecord() cardrequest.TestInfo {
	return cardrequest.TestInfo{
		Objective:    dto.Objective,
		StartDate:    dto.StartDate,
		EndDate:      dto.EndDate,
		TxnLimit:     dto.TxnLimit,
		MCCCodes:     dto.MCCCodes,
		CountryCodes: dto.CountryCodes,
	}
}

type TerminalInfoDTO struct {
	TerminalDetail    string `json:"terminalDetail" validate:"required"`
	PaymentTechnology string `json:"paymentTechnology" validate:"omitempty"`
	PINCapability     string `json:"pinCapability" validate:"omitempty"`
	SecuredConnection bool   `json:"confirmSecuredConnection"`
}

func (dto *TerminalInfoDTO) ToRecord() cardrequest.TerminalInfo {
	return cardrequest.TerminalInfo{
		TerminalDetail:    dto.TerminalDetail,
		PaymentTechnology: dto.PaymentTechnology,
		PINCapability:     dto.PINCapability,
		SecuredConnection: dto.SecuredConnection,
	}
}

type TesterDTO struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	PhysicalCard bool   `json:"physicalCard"`
	MediaCard    bool   `json:"mediaCard"`
}

type AddressDTO struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2" validate:"omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"omitempty"`
	PostalCode string `json:"postalCode" validate:"omitempty"`
	Country    string `json:"country" validate:"required"`
}

type ShippingInfoDTO struct {
	CardType   string       `json:"cardType" validate:"omitempty"`
	CardCount  int          `json:"cardCount" validate:"omitempty,gte=0"`
	Testers    []TesterDTO  `json:"testers" validate:"omitempty,dive"`
	Addresses  []AddressDTO `json:"addresses" validate:"omitempty,dive"`
	MobileOnly bool         `json:"mobileOnly"`
}

func (dto *ShippingInfoDTO) ToRecord() cardrequest.ShippingInfo {
	testers := make([]cardrequest.Tester, 0, len(dto.Testers))
	for _, t := range dto.Testers {
		testers = append(testers, cardrequest.Tester{
			Name:         t.Name,
			Email:        t.Email,
			PhysicalCard: t.PhysicalCard,
			MediaCard:    t.MediaCard,
		})
	}
	addresses := make([]cardrequest.Address, 0, len(dto.Addresses))
	for _, a := range dto.Addresses {
		addresses = append(addresses, cardrequest.Address{
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		})
	}
	return cardrequest.ShippingInfo{
		CardType:   dto.CardType,
		CardCount:  dto.CardCount,
		Testers:    testers,
		Addresses:  addresses,
		MobileOnly: dto.MobileOnly,
	}
}

type SNStatusVerifyDTO struct {
	Verified bool `json:"snStatusVerify"`
}

// UpdateEnvelopeDTO is the legacy generic partial-update body of
// PUT /card-requests/{id}. Column selects the sub-record SubmitData decodes
// into; Status requests a transition.
type UpdateEnvelopeDTO struct {
	Column         string          `json:"column" validate:"omitempty,oneof=requestor_info test_info terminal_info shipping_details"`
	SubmitData     json.RawMessage `json:"submitData" validate:"omitempty"`
	Status         string          `json:"status" validate:"omitempty"`
	Comment        string          `json:"comment" validate:"omitempty"`
	SNStatusVerify *bool           `json:"snStatusVerify" validate:"omitempty"`
	Environment    int             `json:"environment" validate:"omitempty"`
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

func (dto *RequestorInfoDTO) Ok() (map[string]string, bool)  { return validateStruct(dto) }
func (dto *TestInfoDTO) Ok() (map[string]string, bool)       { return validateStruct(dto) }
func (dto *TerminalInfoDTO) Ok() (map[string]string, bool)   { return validateStruct(dto) }
func (dto *ShippingInfoDTO) Ok() (map[string]string, bool)   { return validateStruct(dto) }
func (dto *UpdateEnvelopeDTO) Ok() (map[string]string, bool) { return validateStruct(dto) }

// CardRequestResponse is the full wire representation, comments included.
type CardRequestResponse struct {
	ID             uuid.UUID                   `json:"id"`
	RequestID      int64                       `json:"requestId"`
	Status         string                      `json:"status"`
	Environment    int                         `json:"environment"`
	TerminalType   string                      `json:"terminalType"`
	RequestorID    uint                        `json:"requestorId"`
	RequestorInfo  RequestorInfoDTO            `json:"requestorInfo"`
	SNVerified     bool                        `json:"snStatusVerify"`
	TestInfo       *cardrequest.TestInfo       `json:"testInfo,omitempty"`
	TerminalInfo   *cardrequest.TerminalInfo   `json:"terminalInfo,omitempty"`
	ShippingInfo   *cardrequest.ShippingInfo   `json:"shippingInfo,omitempty"`
	FulfilmentInfo *cardrequest.FulfilmentInfo `json:"fulfilmentInfo,omitempty"`
	Comments       []CommentResponse           `json:"comments"`
	Version        int64                       `json:"version"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	AuthorID  uint      `json:"authorId"`
	Author    string    `json:"author"`
	Status    string    `json:"status"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewCardRequestResponse(req *cardrequest.CardRequest) *CardRequestResponse {
	comments := make([]CommentResponse, 0, len(req.Comments))
	for _, c := range req.Comments {
		comments = append(comments, CommentResponse{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Author:    c.Author,
			Status:    string(c.Status),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return &CardRequestResponse{
		ID:           req.ID,
		RequestID:    req.RequestID,
		Status:       string(req.Status),
		Environment:  int(req.Environment),
		TerminalType: string(req.TerminalType),
		RequestorID:  req.RequestorID,
		RequestorInfo: RequestorInfoDTO{
			SNTicket:       req.RequestorInfo.SNTicket,
			RequestorName:  req.RequestorInfo.RequestorName,
			Email:          req.RequestorInfo.Email,
			PartnerID:      req.RequestorInfo.PartnerID,
			RequestForSelf: req.RequestorInfo.RequestForSelf,
		},
		SNVerified:     req.RequestorInfo.SNStatusVerified,
		TestInfo:       req.TestInfo,
		TerminalInfo:   req.TerminalInfo,
		ShippingInfo:   req.ShippingInfo,
		FulfilmentInfo: req.FulfilmentInfo,
		Comments:       comments,
		Version:        req.Version,
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
	}
}
