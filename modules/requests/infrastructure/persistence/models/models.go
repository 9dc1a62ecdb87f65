package models

import "time"

// CardRequest is the database row. Step payloads live in jsonb columns so the
// wizard can grow fields without migrations.
type CardRequest struct {
	ID             string
	RequestID      int64
	Status         string
	Environment    int
	TerminalType   string
	RequestorID    uint
	RequestorInfo  []byte
	TestInfo       []byte
	TerminalInfo   []byte
	ShippingInfo   []byte
	FulfilmentInfo []byte
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CardRequestComment struct {
	ID            uint
	CardRequestID string
	AuthorID      uint
	Author        string
	Status        string
	Text          string
	CreatedAt     time.Time
}
