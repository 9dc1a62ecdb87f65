package cardrequest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/pkg/serrors"
)

// ErrVersionConflict reports a lost optimistic-concurrency race: another actor
// mutated the request between read and write. The caller retries from a fresh
// read instead of double-applying a transition.
var ErrVersionConflict = serrors.NewError("CONFLICT", "the request was modified by someone else, reload and try again", "")

// Status is the closed workflow state enumeration. Values travel on the wire
// as-is; unknown strings are rejected at the boundary instead of compared ad
// hoc downstream.
type Status string

const (
	StatusNew        Status = "new"
	StatusDraft      Status = "draft"
	StatusSubmitted  Status = "submitted"
	StatusReturned   Status = "returned"
	StatusApproved   Status = "approved"
	StatusAssignCard Status = "assign_card"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusDeleted    Status = "deleted"
)

func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	switch s {
	case StatusNew, StatusDraft, StatusSubmitted, StatusReturned, StatusApproved,
		StatusAssignCard, StatusShipped, StatusCompleted, StatusDeleted:
		return s, nil
	case "":
		// An absent status means the record has never been persisted.
		return StatusNew, nil
	default:
		return "", fmt.Errorf("unknown card request status %q", value)
	}
}

func (s Status) Terminal() bool {
	return s == StatusShipped || s == StatusCompleted || s == StatusDeleted
}

// TerminalType distinguishes physical point-of-sale requests from e-commerce
// ones. Stored normalized lowercase; parsing is case-insensitive because the
// legacy clients sent both spellings.
type TerminalType string

const (
	TerminalPos   TerminalType = "pos"
	TerminalEcomm TerminalType = "ecomm"
)

func ParseTerminalType(value string) (TerminalType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pos":
		return TerminalPos, nil
	case "ecomm", "ecom":
		return TerminalEcomm, nil
	default:
		return "", fmt.Errorf("unknown terminal type %q", value)
	}
}

type RequestorInfo struct {
	SNTicket         string `json:"snRequest"`
	RequestorName    string `json:"requestorName"`
	Email            string `json:"email"`
	PartnerID        uint   `json:"partnerId,omitempty"`
	RequestForSelf   bool   `json:"requestForSelf"`
	SNStatusVerified bool   `json:"snStatusVerify"`
}

type TestInfo struct {
	Objective    string    `json:"objective"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	TxnLimit     int       `json:"txnLimit"`
	MCCCodes     []string  `json:"mccCodes,omitempty"`
	CountryCodes []string  `json:"countryCodes,omitempty"`
}

type TerminalInfo struct {
	TerminalDetail    string `json:"terminalDetail"`
	PaymentTechnology string `json:"paymentTechnology"`
	PINCapability     string `json:"pinCapability"`
	// SecuredConnection mirrors the confirm_secured_connection=yes attestation
	// required before a POS request may leave draft.
	SecuredConnection bool `json:"confirmSecuredConnection"`
}

type Tester struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	PhysicalCard bool   `json:"physicalCard"`
	MediaCard    bool   `json:"mediaCard"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

type ShippingInfo struct {
	CardType   string    `json:"cardType"`
	CardCount  int       `json:"cardCount"`
	Testers    []Tester  `json:"testers,omitempty"`
	Addresses  []Address `json:"addresses,omitempty"`
	MobileOnly bool      `json:"mobileOnly"`
}

type FulfilmentInfo struct {
	Comment  string `json:"comment"`
	Decision string `json:"decision"`
}

// Comment is one entry of the append-only audit list. Server-authoritative:
// clients never write these directly.
type Comment struct {
	ID        uint
	AuthorID  uint
	Author    string
	Status    Status
	Text      string
	CreatedAt time.Time
}

// CardRequest is the aggregate root of the test-card workflow.
type CardRequest struct {
	ID           uuid.UUID
	RequestID    int64 // human-readable sequence, server-assigned
	Status       Status
	Environment  environment.Environment
	TerminalType TerminalType
	RequestorID  uint

	RequestorInfo  RequestorInfo
	TestInfo       *TestInfo
	TerminalInfo   *TerminalInfo
	ShippingInfo   *ShippingInfo
	FulfilmentInfo *FulfilmentInfo
	Comments       []Comment

	// Version guards transitions against concurrent actors. Every successful
	// mutation increments it; a stale write is a conflict, not a double apply.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MediaCardOnly reports whether fulfilment needs no physical card: at least
// one tester takes a media card and none takes a physical one.
func (r *CardRequest) MediaCardOnly() bool {
	if r.ShippingInfo == nil || len(r.ShippingInfo.Testers) == 0 {
		return false
	}
	hasMedia := false
	for _, t := range r.ShippingInfo.Testers {
		if t.PhysicalCard {
			return false
		}
		if t.MediaCard {
			hasMedia = true
		}
	}
	return hasMedia
}

func (r *CardRequest) SecuredConnectionConfirmed() bool {
	return r.TerminalInfo != nil && r.TerminalInfo.SecuredConnection
}

type FindParams struct {
	Status       Status
	Environment  environment.Environment
	TerminalType TerminalType
	RequestorID  uint
	Statuses     []Status
	Limit        int
	Offset       int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*CardRequest, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*CardRequest, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, data *CardRequest) (*CardRequest, error)
	// Update persists the record only when the stored version matches
	// data.Version, returning ErrVersionConflict otherwise.
	Update(ctx context.Context, data *CardRequest) error
	AppendComment(ctx context.Context, id uuid.UUID, comment Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}
