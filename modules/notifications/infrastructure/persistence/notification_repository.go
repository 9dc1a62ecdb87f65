package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/notifications/domain/notification"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/repo"
)

const notificationColumns = `id, type, status, start_date, end_date, text, attachment_path, created_by, created_at, updated_at`

type PgNotificationRepository struct{}

func NewNotificationRepository() notification.Repository {
	return &PgNotificationRepository{}
}

func (r *PgNotificationRepository) GetByID(ctx context.Context, id uint) (*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := scanNotification(tx.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, composables.ErrNotFound
	}
	return entity, err
}

func (r *PgNotificationRepository) GetPaginated(ctx context.Context, params *notification.FindParams) ([]*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where := []string{"status <> 'deleted'"}
	args := []interface{}{}
	if params != nil {
		if params.Type != "" {
			where = append(where, fmt.Sprintf("type = $%d", len(args)+1))
			args = append(args, string(params.Type))
		}
		if params.Status != "" {
			where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
			args = append(args, string(params.Status))
		}
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	var results []*notification.Notification
	for rows.Next() {
		entity, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// ActiveWeb serves the header-badge poll: approved web notices inside their
// date window.
func (r *PgNotificationRepository) ActiveWeb(ctx context.Context, now time.Time) ([]*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE type = 'web' AND status = 'approved' AND start_date <= $1 AND end_date >= $1
		ORDER BY start_date DESC
	`, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active notifications")
	}
	defer rows.Close()

	var results []*notification.Notification
	for rows.Next() {
		entity, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func (r *PgNotificationRepository) Create(ctx context.Context, data *notification.Notification) (*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var id uint
	if err := tx.QueryRow(ctx, `
		INSERT INTO notifications (type, status, start_date, end_date, text, attachment_path, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`,
		string(data.Type), string(data.Status), data.StartDate, data.EndDate,
		data.Text, data.AttachmentPath, data.CreatedBy, now,
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create notification")
	}
	return r.GetByID(ctx, id)
}

func (r *PgNotificationRepository) Update(ctx context.Context, data *notification.Notification) (*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE notifications
		SET type = $2, status = $3, start_date = $4, end_date = $5, text = $6, attachment_path = $7, updated_at = now()
		WHERE id = $1
	`,
		data.ID, string(data.Type), string(data.Status), data.StartDate, data.EndDate,
		data.Text, data.AttachmentPath,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update notification")
	}
	if tag.RowsAffected() == 0 {
		return nil, composables.ErrNotFound
	}
	return r.GetByID(ctx, data.ID)
}

// ExpireOverdue is a conditional bulk update so concurrent sweeper ticks
// cannot double-expire a notice.
func (r *PgNotificationRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE notifications
		SET status = 'expired', updated_at = now()
		WHERE status = 'approved' AND end_date < $1
	`, now)
	if err != nil {
		return 0, errors.Wrap(err, "failed to expire notifications")
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var entity notification.Notification
	var kind, status string
	if err := row.Scan(
		&entity.ID, &kind, &status, &entity.StartDate, &entity.EndDate,
		&entity.Text, &entity.AttachmentPath, &entity.CreatedBy,
		&entity.CreatedAt, &entity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	entity.Type = notification.Type(kind)
	entity.Status = notification.Status(status)
	return &entity, nil
}
