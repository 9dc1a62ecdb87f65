package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bankhub/testcard-portal/pkg/serrors"
)

type Type string

const (
	TypeWeb    Type = "web"
	TypeMobile Type = "mobile"
)

func ParseType(value string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(TypeWeb):
		return TypeWeb, nil
	case string(TypeMobile):
		return TypeMobile, nil
	default:
		return "", fmt.Errorf("unknown notification type %q", value)
	}
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusReturned  Status = "returned"
	StatusApproved  Status = "approved"
	StatusDeleted   Status = "deleted"
	StatusExpired   Status = "expired"
)

func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusDraft, StatusSubmitted, StatusReturned, StatusApproved, StatusDeleted, StatusExpired:
		return Status(strings.ToLower(strings.TrimSpace(value))), nil
	default:
		return "", fmt.Errorf("unknown status %q", value)
	}
}

// Editable reports whether the notice text and dates may still change.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusReturned
}

func (s Status) Terminal() bool {
	return s == StatusDeleted || s == StatusExpired
}

var ErrActionNotAllowed = serrors.NewError("ACTION_NOT_ALLOWED", "this action is not available for the notice in its current state", "")

// transitions is the flat approve/return machine. Expired is only ever
// reached by the sweeper, never by a user action.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted, StatusDeleted},
	StatusSubmitted: {StatusApproved, StatusReturned, StatusDeleted},
	StatusReturned:  {StatusSubmitted, StatusDeleted},
	StatusApproved:  {StatusDeleted, StatusExpired},
}

func (s Status) CanTransition(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Notification struct {
	ID             uint      `json:"id"`
	Type           Type      `json:"type"`
	Status         Status    `json:"status"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Text           string    `json:"text"`
	AttachmentPath string    `json:"attachmentPath,omitempty"`
	CreatedBy      uint      `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ActiveAt reports whether the notice should show to end users.
func (n *Notification) ActiveAt(t time.Time) bool {
	return n.Status == StatusApproved && !t.Before(n.StartDate) && !t.After(n.EndDate)
}

type FindParams struct {
	Type   Type
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Notification, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Notification, error)
	ActiveWeb(ctx context.Context, now time.Time) ([]*Notification, error)
	Create(ctx context.Context, data *Notification) (*Notification, error)
	Update(ctx context.Context, data *Notification) (*Notification, error)
	// ExpireOverdue flips approved notices past their end date to expired and
	// returns how many rows changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
