package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bankhub/testcard-portal/modules/requests/domain/cardrequest"
	"github.com/bankhub/testcard-portal/modules/requests/infrastructure/persistence/models"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/repo"
)

const cardRequestColumns = `
	id, request_id, status, environment, terminal_type, requestor_id,
	requestor_info, test_info, terminal_info, shipping_info, fulfilment_info,
	version, created_at, updated_at`

type CardRequestRepository struct{}

func NewCardRequestRepository() cardrequest.Repository {
	return &CardRequestRepository{}
}

func (r *CardRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*cardrequest.CardRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `
		SELECT `+cardRequestColumns+`
		FROM card_requests
		WHERE id = $1
	`, id)
	entity, err := scanCardRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, composables.ErrNotFound
		}
		return nil, err
	}
	entity.Comments, err = r.comments(ctx, id)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *CardRequestRepository) GetPaginated(ctx context.Context, params *cardrequest.FindParams) ([]*cardrequest.CardRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args := buildCardRequestFilters(params)
	query := `
		SELECT ` + cardRequestColumns + `
		FROM card_requests
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*cardrequest.CardRequest
	for rows.Next() {
		entity, err := scanCardRequest(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *CardRequestRepository) Count(ctx context.Context, params *cardrequest.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildCardRequestFilters(params)

	var count int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM card_requests
		WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CardRequestRepository) Create(ctx context.Context, data *cardrequest.CardRequest) (*cardrequest.CardRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	dbRow, err := toDBCardRequest(data)
	if err != nil {
		return nil, err
	}
	if dbRow.CreatedAt.IsZero() {
		dbRow.CreatedAt = time.Now()
	}
	dbRow.UpdatedAt = dbRow.CreatedAt

	// request_id comes from a sequence so it stays short and human-readable
	// next to the uuid primary key.
	err = tx.QueryRow(ctx, `
		INSERT INTO card_requests (
			id, request_id, status, environment, terminal_type, requestor_id,
			requestor_info, test_info, terminal_info, shipping_info, fulfilment_info,
			version, created_at, updated_at
		)
		VALUES ($1, nextval('card_request_seq'), $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
		RETURNING request_id, version
	`,
		dbRow.ID, dbRow.Status, dbRow.Environment, dbRow.TerminalType, dbRow.RequestorID,
		dbRow.RequestorInfo, dbRow.TestInfo, dbRow.TerminalInfo, dbRow.ShippingInfo, dbRow.FulfilmentInfo,
		dbRow.CreatedAt, dbRow.UpdatedAt,
	).Scan(&dbRow.RequestID, &dbRow.Version)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, data.ID)
}

// Update writes the record only when the stored version still matches. A
// mismatch means another actor won the race and the caller gets a conflict.
func (r *CardRequestRepository) Update(ctx context.Context, data *cardrequest.CardRequest) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	dbRow, err := toDBCardRequest(data)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE card_requests
		SET status = $2,
		    environment = $3,
		    terminal_type = $4,
		    requestor_info = $5,
		    test_info = $6,
		    terminal_info = $7,
		    shipping_info = $8,
		    fulfilment_info = $9,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND version = $10
	`,
		dbRow.ID, dbRow.Status, dbRow.Environment, dbRow.TerminalType,
		dbRow.RequestorInfo, dbRow.TestInfo, dbRow.TerminalInfo, dbRow.ShippingInfo, dbRow.FulfilmentInfo,
		dbRow.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM card_requests WHERE id = $1)`, dbRow.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return composables.ErrNotFound
		}
		return cardrequest.ErrVersionConflict
	}
	return nil
}

func (r *CardRequestRepository) AppendComment(ctx context.Context, id uuid.UUID, comment cardrequest.Comment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO card_request_comments (card_request_id, author_id, author, status, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, comment.AuthorID, comment.Author, string(comment.Status), comment.Text, comment.CreatedAt)
	return err
}

// Delete is a soft delete. The workflow treats deleted as a terminal status
// and the audit comments stay queryable.
func (r *CardRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE card_requests SET status = 'deleted', updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return composables.ErrNotFound
	}
	return nil
}

func (r *CardRequestRepository) comments(ctx context.Context, id uuid.UUID) ([]cardrequest.Comment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT id, card_request_id, author_id, author, status, text, created_at
		FROM card_request_comments
		WHERE card_request_id = $1
		ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []cardrequest.Comment
	for rows.Next() {
		var row models.CardRequestComment
		if err := rows.Scan(
			&row.ID, &row.CardRequestID, &row.AuthorID, &row.Author, &row.Status, &row.Text, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, toDomainComment(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func scanCardRequest(row pgx.Row) (*cardrequest.CardRequest, error) {
	var dbRow models.CardRequest
	if err := row.Scan(
		&dbRow.ID, &dbRow.RequestID, &dbRow.Status, &dbRow.Environment, &dbRow.TerminalType, &dbRow.RequestorID,
		&dbRow.RequestorInfo, &dbRow.TestInfo, &dbRow.TerminalInfo, &dbRow.ShippingInfo, &dbRow.FulfilmentInfo,
		&dbRow.Version, &dbRow.CreatedAt, &dbRow.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return toDomainCardRequest(&dbRow)
}

func buildCardRequestFilters(params *cardrequest.FindParams) ([]string, []interface{}) {
	where := []string{"status <> 'deleted'"}
	args := []interface{}{}
	argPos := 1
	if params == nil {
		return where, args
	}

	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(params.Status))
		argPos++
	}
	if len(params.Statuses) > 0 {
		values := make([]string, 0, len(params.Statuses))
		for _, s := range params.Statuses {
			values = append(values, string(s))
		}
		where = append(where, fmt.Sprintf("status = ANY($%d)", argPos))
		args = append(args, values)
		argPos++
	}
	if params.Environment != 0 {
		where = append(where, fmt.Sprintf("environment = $%d", argPos))
		args = append(args, int(params.Environment))
		argPos++
	}
	if params.TerminalType != "" {
		where = append(where, fmt.Sprintf("terminal_type = $%d", argPos))
		args = append(args, string(params.TerminalType))
		argPos++
	}
	if params.RequestorID != 0 {
		where = append(where, fmt.Sprintf("requestor_id = $%d", argPos))
		args = append(args, params.RequestorID)
	}
	return where, args
}
