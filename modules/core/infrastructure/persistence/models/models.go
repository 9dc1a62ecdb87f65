package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID           uint
	Email        string
	FirstName    string
	LastName     string
	Phone        sql.NullString
	Role         int
	Status       string
	EnvProd      bool
	EnvQA        bool
	EnvTest      bool
	PasswordHash sql.NullString
	LastLogin    sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	Token         string
	RefreshCipher string
	UserID        uint
	IP            string
	UserAgent     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

type OTPChallenge struct {
	ID          uint
	UserID      uint
	CodeHash    string
	Attempts    int
	ExpiresAt   time.Time
	LockedUntil sql.NullTime
	LastSentAt  time.Time
	CreatedAt   time.Time
}
