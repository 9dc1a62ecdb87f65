package persistence

import (
	"database/sql"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/otp"
	"github.com/bankhub/testcard-portal/modules/core/domain/entities/session"
	"github.com/bankhub/testcard-portal/modules/core/infrastructure/persistence/models"
)

func toDomainUser(row *models.User) user.User {
	opts := []user.Option{
		user.WithID(row.ID),
		user.WithRole(user.Role(row.Role)),
		user.WithStatus(user.Status(row.Status)),
		user.WithEnvAccess(user.EnvAccess{Prod: row.EnvProd, QA: row.EnvQA, Test: row.EnvTest}),
		user.WithTimestamps(row.CreatedAt, row.UpdatedAt),
	}
	if row.Phone.Valid {
		opts = append(opts, user.WithPhone(row.Phone.String))
	}
	if row.PasswordHash.Valid {
		opts = append(opts, user.WithPasswordHash(row.PasswordHash.String))
	}
	if row.LastLogin.Valid {
		t := row.LastLogin.Time
		opts = append(opts, user.WithLastLogin(&t))
	}
	return user.New(row.Email, row.FirstName, row.LastName, opts...)
}

func toDBUser(entity user.User) *models.User {
	row := &models.User{
		ID:        entity.ID(),
		Email:     entity.Email(),
		FirstName: entity.FirstName(),
		LastName:  entity.LastName(),
		Role:      int(entity.Role()),
		Status:    string(entity.Status()),
		EnvProd:   entity.EnvAccess().Prod,
		EnvQA:     entity.EnvAccess().QA,
		EnvTest:   entity.EnvAccess().Test,
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
	if entity.Phone() != "" {
		row.Phone = sql.NullString{String: entity.Phone(), Valid: true}
	}
	if entity.PasswordHash() != "" {
		row.PasswordHash = sql.NullString{String: entity.PasswordHash(), Valid: true}
	}
	if entity.LastLogin() != nil {
		row.LastLogin = sql.NullTime{Time: *entity.LastLogin(), Valid: true}
	}
	return row
}

func toDomainSession(row *models.Session) *session.Session {
	return &session.Session{
		Token:         row.Token,
		RefreshCipher: row.RefreshCipher,
		UserID:        row.UserID,
		IP:            row.IP,
		UserAgent:     row.UserAgent,
		ExpiresAt:     row.ExpiresAt,
		CreatedAt:     row.CreatedAt,
	}
}

func toDomainChallenge(row *models.OTPChallenge) *otp.Challenge {
	entity := &otp.Challenge{
		ID:         row.ID,
		UserID:     row.UserID,
		CodeHash:   row.CodeHash,
		Attempts:   row.Attempts,
		ExpiresAt:  row.ExpiresAt,
		LastSentAt: row.LastSentAt,
		CreatedAt:  row.CreatedAt,
	}
	if row.LockedUntil.Valid {
		t := row.LockedUntil.Time
		entity.LockedUntil = &t
	}
	return entity
}
