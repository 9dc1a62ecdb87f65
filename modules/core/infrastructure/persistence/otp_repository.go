package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/otp"
	"github.com/bankhub/testcard-portal/modules/core/infrastructure/persistence/models"
	"github.com/bankhub/testcard-portal/pkg/composables"
)

const (
	otpFindQuery = `
		SELECT id, user_id, code_hash, attempts, expires_at, locked_until, last_sent_at, created_at
		FROM otp_challenges`

	otpInsertQuery = `
		INSERT INTO otp_challenges (user_id, code_hash, attempts, expires_at, locked_until, last_sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	otpUpdateQuery = `
		UPDATE otp_challenges
		SET code_hash = $2, attempts = $3, expires_at = $4, locked_until = $5, last_sent_at = $6
		WHERE id = $1`

	otpDeleteByUserQuery = `DELETE FROM otp_challenges WHERE user_id = $1`
)

type PgOTPRepository struct{}

func NewOTPRepository() otp.Repository {
	return &PgOTPRepository{}
}

func (g *PgOTPRepository) GetActiveByUserID(ctx context.Context, userID uint) (*otp.Challenge, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.OTPChallenge
	if err := tx.QueryRow(ctx,
		otpFindQuery+" WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1", userID,
	).Scan(
		&row.ID, &row.UserID, &row.CodeHash, &row.Attempts,
		&row.ExpiresAt, &row.LockedUntil, &row.LastSentAt, &row.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, composables.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to query otp challenge")
	}
	return toDomainChallenge(&row), nil
}

func (g *PgOTPRepository) Create(ctx context.Context, data *otp.Challenge) (*otp.Challenge, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.QueryRow(ctx, otpInsertQuery,
		data.UserID, data.CodeHash, data.Attempts, data.ExpiresAt,
		nullTime(data.LockedUntil), data.LastSentAt, data.CreatedAt,
	).Scan(&data.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create otp challenge")
	}
	return data, nil
}

func (g *PgOTPRepository) Update(ctx context.Context, data *otp.Challenge) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, otpUpdateQuery,
		data.ID, data.CodeHash, data.Attempts, data.ExpiresAt, nullTime(data.LockedUntil), data.LastSentAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update otp challenge")
	}
	if tag.RowsAffected() == 0 {
		return composables.ErrNotFound
	}
	return nil
}

func (g *PgOTPRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, otpDeleteByUserQuery, userID)
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
