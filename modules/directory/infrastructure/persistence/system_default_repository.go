package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"github.com/bankhub/testcard-portal/modules/directory/domain/directory"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/repo"
)

const systemDefaultColumns = `id, environment, name, value, updated_at`

type PgSystemDefaultRepository struct{}

func NewSystemDefaultRepository() directory.SystemDefaultRepository {
	return &PgSystemDefaultRepository{}
}

func (r *PgSystemDefaultRepository) GetPaginated(ctx context.Context, params *directory.DefaultFindParams) ([]*directory.SystemDefault, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where := []string{"1 = 1"}
	args := []interface{}{}
	if params != nil && params.Environment != 0 {
		where = append(where, fmt.Sprintf("environment = $%d", len(args)+1))
		args = append(args, int(params.Environment))
	}
	query := `SELECT ` + systemDefaultColumns + ` FROM system_defaults WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY environment, name`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list system defaults")
	}
	defer rows.Close()

	var results []*directory.SystemDefault
	for rows.Next() {
		entity, err := scanSystemDefault(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func (r *PgSystemDefaultRepository) GetByID(ctx context.Context, id uint) (*directory.SystemDefault, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := scanSystemDefault(tx.QueryRow(ctx,
		`SELECT `+systemDefaultColumns+` FROM system_defaults WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, composables.ErrNotFound
	}
	return entity, err
}

func (r *PgSystemDefaultRepository) Create(ctx context.Context, data *directory.SystemDefault) (*directory.SystemDefault, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var id uint
	if err := tx.QueryRow(ctx, `
		INSERT INTO system_defaults (environment, name, value, updated_at)
		VALUES ($1, $2, $3, now())
		RETURNING id
	`, int(data.Environment), data.Name, data.Value).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create system default")
	}
	return r.GetByID(ctx, id)
}

func (r *PgSystemDefaultRepository) Update(ctx context.Context, data *directory.SystemDefault) (*directory.SystemDefault, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE system_defaults
		SET environment = $2, name = $3, value = $4, updated_at = now()
		WHERE id = $1
	`, data.ID, int(data.Environment), data.Name, data.Value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update system default")
	}
	if tag.RowsAffected() == 0 {
		return nil, composables.ErrNotFound
	}
	return r.GetByID(ctx, data.ID)
}

func scanSystemDefault(row pgx.Row) (*directory.SystemDefault, error) {
	var entity directory.SystemDefault
	var env int
	if err := row.Scan(&entity.ID, &env, &entity.Name, &entity.Value, &entity.UpdatedAt); err != nil {
		return nil, err
	}
	entity.Environment = environment.Environment(env)
	return &entity, nil
}
