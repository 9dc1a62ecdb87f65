package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/session"
	"github.com/bankhub/testcard-portal/modules/core/infrastructure/persistence/models"
	"github.com/bankhub/testcard-portal/pkg/composables"
)

const (
	sessionFindQuery = `
		SELECT token, refresh_cipher, user_id, ip, user_agent, expires_at, created_at
		FROM sessions`

	sessionInsertQuery = `
		INSERT INTO sessions (token, refresh_cipher, user_id, ip, user_agent, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	sessionDeleteQuery        = `DELETE FROM sessions WHERE token = $1`
	sessionDeleteByUserQuery  = `DELETE FROM sessions WHERE user_id = $1`
	sessionDeleteExpiredQuery = `DELETE FROM sessions WHERE expires_at < now()`
)

type PgSessionRepository struct{}

func NewSessionRepository() session.Repository {
	return &PgSessionRepository{}
}

func (g *PgSessionRepository) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Session
	if err := tx.QueryRow(ctx, sessionFindQuery+" WHERE token = $1", token).Scan(
		&row.Token, &row.RefreshCipher, &row.UserID, &row.IP, &row.UserAgent, &row.ExpiresAt, &row.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, composables.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to query session")
	}
	return toDomainSession(&row), nil
}

func (g *PgSessionRepository) Create(ctx context.Context, data *session.Session) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sessionInsertQuery,
		data.Token, data.RefreshCipher, data.UserID, data.IP, data.UserAgent, data.ExpiresAt, data.CreatedAt,
	)
	return errors.Wrap(err, "failed to create session")
}

func (g *PgSessionRepository) Delete(ctx context.Context, token string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sessionDeleteQuery, token)
	return err
}

func (g *PgSessionRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sessionDeleteByUserQuery, userID)
	return err
}

func (g *PgSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, sessionDeleteExpiredQuery)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
