package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/modules/core/infrastructure/persistence/models"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/repo"
)

const (
	userFindQuery = `
		SELECT
			u.id,
			u.email,
			u.first_name,
			u.last_name,
			u.phone,
			u.role,
			u.status,
			u.env_prod,
			u.env_qa,
			u.env_test,
			u.password_hash,
			u.last_login,
			u.created_at,
			u.updated_at
		FROM users u`

	userCountQuery = `SELECT COUNT(u.id) FROM users u`

	userInsertQuery = `
		INSERT INTO users (
			email, first_name, last_name, phone, role, status,
			env_prod, env_qa, env_test, password_hash, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING id`

	userUpdateQuery = `
		UPDATE users
		SET email = $2,
		    first_name = $3,
		    last_name = $4,
		    phone = $5,
		    role = $6,
		    status = $7,
		    env_prod = $8,
		    env_qa = $9,
		    env_test = $10,
		    password_hash = $11,
		    updated_at = now()
		WHERE id = $1`

	userUpdateLastLoginQuery = `UPDATE users SET last_login = now() WHERE id = $1`

	userDeleteQuery = `DELETE FROM users WHERE id = $1`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	return g.getOne(ctx, "WHERE u.id = $1", id)
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return g.getOne(ctx, "WHERE lower(u.email) = lower($1)", email)
}

func (g *PgUserRepository) getOne(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, userFindQuery+" "+where, args...)
	entity, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, composables.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to query user")
	}
	return entity, nil
}

func (g *PgUserRepository) GetPaginated(ctx context.Context, params *user.FindParams) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args := buildUserFilters(params)
	query := userFindQuery
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY u.last_name, u.first_name"
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		entity, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (g *PgUserRepository) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildUserFilters(params)
	query := userCountQuery
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

func (g *PgUserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	dbRow := toDBUser(data)
	var id uint
	if err := tx.QueryRow(ctx, userInsertQuery,
		dbRow.Email, dbRow.FirstName, dbRow.LastName, dbRow.Phone, dbRow.Role, dbRow.Status,
		dbRow.EnvProd, dbRow.EnvQA, dbRow.EnvTest, dbRow.PasswordHash,
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	return g.GetByID(ctx, id)
}

func (g *PgUserRepository) Update(ctx context.Context, data user.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	dbRow := toDBUser(data)
	tag, err := tx.Exec(ctx, userUpdateQuery,
		dbRow.ID, dbRow.Email, dbRow.FirstName, dbRow.LastName, dbRow.Phone, dbRow.Role, dbRow.Status,
		dbRow.EnvProd, dbRow.EnvQA, dbRow.EnvTest, dbRow.PasswordHash,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return composables.ErrNotFound
	}
	return nil
}

func (g *PgUserRepository) UpdateLastLogin(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, userUpdateLastLoginQuery, id)
	return err
}

func (g *PgUserRepository) Delete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, userDeleteQuery, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	if tag.RowsAffected() == 0 {
		return composables.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var dbRow models.User
	if err := row.Scan(
		&dbRow.ID, &dbRow.Email, &dbRow.FirstName, &dbRow.LastName, &dbRow.Phone,
		&dbRow.Role, &dbRow.Status, &dbRow.EnvProd, &dbRow.EnvQA, &dbRow.EnvTest,
		&dbRow.PasswordHash, &dbRow.LastLogin, &dbRow.CreatedAt, &dbRow.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return toDomainUser(&dbRow), nil
}

func buildUserFilters(params *user.FindParams) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	argPos := 1
	if params == nil {
		return where, args
	}

	if params.Role != 0 {
		where = append(where, fmt.Sprintf("u.role = $%d", argPos))
		args = append(args, int(params.Role))
		argPos++
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("u.status = $%d", argPos))
		args = append(args, string(params.Status))
		argPos++
	}
	if params.Email != "" {
		where = append(where, fmt.Sprintf("lower(u.email) = lower($%d)", argPos))
		args = append(args, params.Email)
		argPos++
	}
	if q := strings.TrimSpace(params.Search); q != "" {
		where = append(where, fmt.Sprintf(
			"(u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+q+"%")
	}
	return where, args
}
