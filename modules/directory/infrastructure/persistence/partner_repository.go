package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/directory/domain/directory"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/repo"
)

const partnerColumns = `id, name, contact_name, contact_email, contact_phone, status, created_at, updated_at`

type PgPartnerRepository struct{}

func NewPartnerRepository() directory.PartnerRepository {
	return &PgPartnerRepository{}
}

func (r *PgPartnerRepository) GetPaginated(ctx context.Context, params *directory.FindParams) ([]*directory.Partner, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args := statusFilter(params)
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE ` + strings.Join(where, " AND ") + ` ORDER BY name`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list partners")
	}
	defer rows.Close()

	var results []*directory.Partner
	for rows.Next() {
		entity, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func (r *PgPartnerRepository) GetByID(ctx context.Context, id uint) (*directory.Partner, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := scanPartner(tx.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, composables.ErrNotFound
	}
	return entity, err
}

func (r *PgPartnerRepository) Create(ctx context.Context, data *directory.Partner) (*directory.Partner, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var id uint
	if err := tx.QueryRow(ctx, `
		INSERT INTO partners (name, contact_name, contact_email, contact_phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`, data.Name, data.ContactName, data.ContactEmail, data.ContactPhone, string(data.Status), now).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create partner")
	}
	return r.GetByID(ctx, id)
}

func (r *PgPartnerRepository) Update(ctx context.Context, data *directory.Partner) (*directory.Partner, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE partners
		SET name = $2, contact_name = $3, contact_email = $4, contact_phone = $5, status = $6, updated_at = now()
		WHERE id = $1
	`, data.ID, data.Name, data.ContactName, data.ContactEmail, data.ContactPhone, string(data.Status))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update partner")
	}
	if tag.RowsAffected() == 0 {
		return nil, composables.ErrNotFound
	}
	return r.GetByID(ctx, data.ID)
}

func scanPartner(row pgx.Row) (*directory.Partner, error) {
	var entity directory.Partner
	var status string
	if err := row.Scan(
		&entity.ID, &entity.Name, &entity.ContactName, &entity.ContactEmail, &entity.ContactPhone,
		&status, &entity.CreatedAt, &entity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	entity.Status = directory.Status(status)
	return &entity, nil
}
