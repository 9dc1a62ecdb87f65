package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/directory/domain/directory"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/repo"
)

const issuerColumns = `id, name, bin, contact_name, contact_email, status, created_at, updated_at`

type PgIssuerRepository struct{}

func NewIssuerRepository() directory.IssuerRepository {
	return &PgIssuerRepository{}
}

func (r *PgIssuerRepository) GetPaginated(ctx context.Context, params *directory.FindParams) ([]*directory.Issuer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args := statusFilter(params)
	query := `SELECT ` + issuerColumns + ` FROM issuers WHERE ` + strings.Join(where, " AND ") + ` ORDER BY name`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list issuers")
	}
	defer rows.Close()

	var results []*directory.Issuer
	for rows.Next() {
		entity, err := scanIssuer(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func (r *PgIssuerRepository) GetByID(ctx context.Context, id uint) (*directory.Issuer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := scanIssuer(tx.QueryRow(ctx,
		`SELECT `+issuerColumns+` FROM issuers WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, composables.ErrNotFound
	}
	return entity, err
}

func (r *PgIssuerRepository) Create(ctx context.Context, data *directory.Issuer) (*directory.Issuer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var id uint
	if err := tx.QueryRow(ctx, `
		INSERT INTO issuers (name, bin, contact_name, contact_email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`, data.Name, data.BIN, data.ContactName, data.ContactEmail, string(data.Status), now).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create issuer")
	}
	return r.GetByID(ctx, id)
}

func (r *PgIssuerRepository) Update(ctx context.Context, data *directory.Issuer) (*directory.Issuer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE issuers
		SET name = $2, bin = $3, contact_name = $4, contact_email = $5, status = $6, updated_at = now()
		WHERE id = $1
	`, data.ID, data.Name, data.BIN, data.ContactName, data.ContactEmail, string(data.Status))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update issuer")
	}
	if tag.RowsAffected() == 0 {
		return nil, composables.ErrNotFound
	}
	return r.GetByID(ctx, data.ID)
}

func scanIssuer(row pgx.Row) (*directory.Issuer, error) {
	var entity directory.Issuer
	var status string
	if err := row.Scan(
		&entity.ID, &entity.Name, &entity.BIN, &entity.ContactName, &entity.ContactEmail,
		&status, &entity.CreatedAt, &entity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	entity.Status = directory.Status(status)
	return &entity, nil
}

func statusFilter(params *directory.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	args := []interface{}{}
	if params != nil && params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(params.Status))
	}
	return where, args
}
