package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
)

// Status is the lifecycle of a reference record. Unlike card requests there is
// no workflow behind it: draft records are simply hidden from pickers until
// activated.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(StatusDraft):
		return StatusDraft, nil
	case string(StatusActive):
		return StatusActive, nil
	case string(StatusInactive):
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("unknown status %q", value)
	}
}

// Issuer is a card-issuing bank available to requesters.
type Issuer struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	BIN          string    `json:"bin"`
	ContactName  string    `json:"contactName"`
	ContactEmail string    `json:"contactEmail"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Partner is a testing partner a request can reference.
type Partner struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contactName"`
	ContactEmail string    `json:"contactEmail"`
	ContactPhone string    `json:"contactPhone"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SystemDefault is a numeric threshold keyed per environment, such as the
// maximum card count per request or the notice expiry window in days.
type SystemDefault struct {
	ID          uint                    `json:"id"`
	Environment environment.Environment `json:"environment"`
	Name        string                  `json:"name"`
	Value       int64                   `json:"value"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

type FindParams struct {
	Status Status
	Limit  int
	Offset int
}

type DefaultFindParams struct {
	Environment environment.Environment
	Limit       int
	Offset      int
}

type IssuerRepository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]*Issuer, error)
	GetByID(ctx context.Context, id uint) (*Issuer, error)
	Create(ctx context.Context, data *Issuer) (*Issuer, error)
	Update(ctx context.Context, data *Issuer) (*Issuer, error)
}

type PartnerRepository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]*Partner, error)
	GetByID(ctx context.Context, id uint) (*Partner, error)
	Create(ctx context.Context, data *Partner) (*Partner, error)
	Update(ctx context.Context, data *Partner) (*Partner, error)
}

type SystemDefaultRepository interface {
	GetPaginated(ctx context.Context, params *DefaultFindParams) ([]*SystemDefault, error)
	GetByID(ctx context.Context, id uint) (*SystemDefault, error)
	Create(ctx context.Context, data *SystemDefault) (*SystemDefault, error)
	Update(ctx context.Context, data *SystemDefault) (*SystemDefault, error)
}
