package audittrail

import (
	"context"
	"time"
)

// Entry is one append-only row in the trail. RecordID is stored as text so
// uuid-keyed and serial-keyed tables share the same trail.
type Entry struct {
	ID        int64     `json:"id"`
	RecordID  string    `json:"recordId"`
	TableName string    `json:"tableName"`
	Action    string    `json:"action"`
	UserID    uint      `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionTransition = "transition"
)

// TwoEvents is the first and last trail entry for a record, the shape the
// record detail screens render.
type TwoEvents struct {
	DateCreated    *time.Time `json:"dateCreated"`
	CreatedBy      uint       `json:"createdBy"`
	LastUpdateDate *time.Time `json:"lastUpdateDate"`
	UpdatedBy      uint       `json:"updatedBy"`
}

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	TwoEvents(ctx context.Context, recordID, tableName string) (*TwoEvents, error)
	GetByRecord(ctx context.Context, recordID, tableName string) ([]*Entry, error)
}
