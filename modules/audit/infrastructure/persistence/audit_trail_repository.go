package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/audit/domain/audittrail"
	"github.com/bankhub/testcard-portal/pkg/composables"
)

type PgAuditTrailRepository struct{}

func NewAuditTrailRepository() audittrail.Repository {
	return &PgAuditTrailRepository{}
}

func (r *PgAuditTrailRepository) Append(ctx context.Context, entry *audittrail.Entry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO audit_trails (record_id, table_name, action, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.RecordID, entry.TableName, entry.Action, entry.UserID, entry.CreatedAt)
	return errors.Wrap(err, "failed to append audit trail")
}

// TwoEvents folds the trail into its first and latest entries in one query.
func (r *PgAuditTrailRepository) TwoEvents(ctx context.Context, recordID, tableName string) (*audittrail.TwoEvents, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var out audittrail.TwoEvents
	var created, updated time.Time
	err = tx.QueryRow(ctx, `
		SELECT first.created_at, first.user_id, last.created_at, last.user_id
		FROM (
			SELECT created_at, user_id FROM audit_trails
			WHERE record_id = $1 AND table_name = $2
			ORDER BY created_at, id LIMIT 1
		) AS first,
		(
			SELECT created_at, user_id FROM audit_trails
			WHERE record_id = $1 AND table_name = $2
			ORDER BY created_at DESC, id DESC LIMIT 1
		) AS last
	`, recordID, tableName).Scan(&created, &out.CreatedBy, &updated, &out.UpdatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, composables.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.DateCreated = &created
	out.LastUpdateDate = &updated
	return &out, nil
}

func (r *PgAuditTrailRepository) GetByRecord(ctx context.Context, recordID, tableName string) ([]*audittrail.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT id, record_id, table_name, action, user_id, created_at
		FROM audit_trails
		WHERE record_id = $1 AND table_name = $2
		ORDER BY created_at, id
	`, recordID, tableName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit trail")
	}
	defer rows.Close()

	var results []*audittrail.Entry
	for rows.Next() {
		var entry audittrail.Entry
		if err := rows.Scan(
			&entry.ID, &entry.RecordID, &entry.TableName, &entry.Action, &entry.UserID, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, &entry)
	}
	return results, rows.Err()
}
